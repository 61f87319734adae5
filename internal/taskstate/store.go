package taskstate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"butler/cli/internal/api"
)

type TaskAPI interface {
	GetTasks(ctx context.Context, includeCompleted bool) ([]api.Task, error)
	CreateTask(ctx context.Context, in api.TaskInput) (api.Task, error)
	UpdateTask(ctx context.Context, id string, in api.TaskInput) (api.Task, error)
	CompleteTask(ctx context.Context, id string) (api.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// Snapshot is a copy of the collection state.
type Snapshot struct {
	Tasks   []api.Task
	Loading bool
	Err     string
}

// Store mirrors the server's task list. The list only changes after the
// server confirms a call; nothing is applied speculatively.
type Store struct {
	api    TaskAPI
	logger *slog.Logger

	mu      sync.Mutex
	tasks   []api.Task
	loading int
	errMsg  string
	gen     uint64
	clock   uint64
	issued  map[string]uint64
	applied map[string]uint64
	touched map[string]uint64
	deleted map[string]uint64
	nextSub int
	subs    map[int]func(Snapshot)
	pending []notification
}

func NewStore(taskAPI TaskAPI, logger *slog.Logger) (*Store, error) {
	if taskAPI == nil {
		return nil, errors.New("task api is required")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Store{api: taskAPI, logger: logger, subs: map[int]func(Snapshot){}}
	s.resetLocked()
	return s, nil
}

func (s *Store) Tasks() []api.Task {
	s.mu.Lock()
	defer s.unlock()
	return copyTasks(s.tasks)
}

func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.unlock()
	return s.loading > 0
}

// Err is the message of the last failed call, or "".
func (s *Store) Err() string {
	s.mu.Lock()
	defer s.unlock()
	return s.errMsg
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.unlock()
	return s.snapshotLocked()
}

// Subscribe registers fn for every state change. Callbacks run after the
// store lock is released and may call back into the store.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.unlock()
	}
}

// Fetch replaces the list with the server's. On failure the list is kept.
func (s *Store) Fetch(ctx context.Context, includeCompleted bool) error {
	s.mu.Lock()
	gen, start := s.gen, s.clock
	s.loading++
	s.errMsg = ""
	s.publishLocked()

	s.unlock()
	tasks, err := s.api.GetTasks(ctx, includeCompleted)
	s.mu.Lock()
	defer s.unlock()

	if s.gen != gen {
		return err
	}
	s.loading--
	if err != nil {
		s.errMsg = err.Error()
		s.publishLocked()
		s.logger.Warn("fetch tasks failed", "err", err)
		return err
	}
	s.tasks = s.mergeFetchedLocked(tasks, start)
	s.publishLocked()
	return nil
}

// Create prepends the server-confirmed task.
func (s *Store) Create(ctx context.Context, in api.TaskInput) (api.Task, error) {
	s.mu.Lock()
	gen := s.gen
	s.unlock()

	task, err := s.api.CreateTask(ctx, in)

	s.mu.Lock()
	defer s.unlock()
	if s.gen != gen {
		return task, err
	}
	if err != nil {
		s.failLocked("create task", err)
		return api.Task{}, err
	}
	s.issued[task.ID]++
	s.applyLocked(task.ID, s.issued[task.ID], func() {
		if i := s.indexLocked(task.ID); i >= 0 {
			s.tasks[i] = task
			return
		}
		s.tasks = append([]api.Task{task}, s.tasks...)
	})
	return task, nil
}

// Update replaces the task with the same id in place.
func (s *Store) Update(ctx context.Context, id string, in api.TaskInput) (api.Task, error) {
	return s.mutate(ctx, id, "update task", func(ctx context.Context) (api.Task, error) {
		return s.api.UpdateTask(ctx, id, in)
	})
}

// Complete marks the task done through the dedicated endpoint.
func (s *Store) Complete(ctx context.Context, id string) (api.Task, error) {
	return s.mutate(ctx, id, "complete task", func(ctx context.Context) (api.Task, error) {
		return s.api.CompleteTask(ctx, id)
	})
}

// Delete removes the task locally once the server confirms it.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	gen := s.gen
	s.issued[id]++
	seq := s.issued[id]
	s.unlock()

	err := s.api.DeleteTask(ctx, id)

	s.mu.Lock()
	defer s.unlock()
	if s.gen != gen {
		return err
	}
	if err != nil {
		s.failLocked("delete task", err)
		return err
	}
	s.applyLocked(id, seq, func() {
		s.deleted[id] = s.clock
		if i := s.indexLocked(id); i >= 0 {
			s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
		}
	})
	return nil
}

// Clear drops all local state without a network call. Responses to calls
// issued before Clear are not applied.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.unlock()
	s.gen++
	s.resetLocked()
	s.publishLocked()
}

func (s *Store) mutate(ctx context.Context, id, op string, call func(context.Context) (api.Task, error)) (api.Task, error) {
	s.mu.Lock()
	gen := s.gen
	s.issued[id]++
	seq := s.issued[id]
	s.unlock()

	task, err := call(ctx)

	s.mu.Lock()
	defer s.unlock()
	if s.gen != gen {
		return task, err
	}
	if err != nil {
		s.failLocked(op, err)
		return api.Task{}, err
	}
	s.applyLocked(id, seq, func() {
		if i := s.indexLocked(id); i >= 0 {
			s.tasks[i] = task
		}
	})
	return task, nil
}

// applyLocked runs fn unless a newer response for id was already applied.
func (s *Store) applyLocked(id string, seq uint64, fn func()) {
	if seq < s.applied[id] {
		s.logger.Debug("drop stale task response", "task_id", id, "seq", seq, "applied", s.applied[id])
		return
	}
	s.applied[id] = seq
	s.clock++
	s.touched[id] = s.clock
	s.errMsg = ""
	fn()
	s.publishLocked()
}

// mergeFetchedLocked takes the server list but keeps local state for ids
// changed after the fetch was issued.
func (s *Store) mergeFetchedLocked(fetched []api.Task, start uint64) []api.Task {
	out := make([]api.Task, 0, len(fetched))
	seen := make(map[string]struct{}, len(fetched))
	var newer []api.Task
	for _, t := range s.tasks {
		if s.touched[t.ID] > start {
			newer = append(newer, t)
		}
	}
	local := make(map[string]api.Task, len(newer))
	for _, t := range newer {
		local[t.ID] = t
	}
	for _, t := range fetched {
		if _, dup := seen[t.ID]; dup {
			continue
		}
		if s.deleted[t.ID] > start {
			continue
		}
		if lt, ok := local[t.ID]; ok {
			t = lt
		}
		seen[t.ID] = struct{}{}
		out = append(out, t)
	}
	var created []api.Task
	for _, t := range newer {
		if _, ok := seen[t.ID]; !ok {
			created = append(created, t)
		}
	}
	return append(created, out...)
}

func (s *Store) failLocked(op string, err error) {
	s.errMsg = err.Error()
	s.publishLocked()
	s.logger.Warn(op+" failed", "err", err)
}

func (s *Store) indexLocked(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) resetLocked() {
	s.tasks = []api.Task{}
	s.loading = 0
	s.errMsg = ""
	s.clock = 0
	s.issued = map[string]uint64{}
	s.applied = map[string]uint64{}
	s.touched = map[string]uint64{}
	s.deleted = map[string]uint64{}
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{Tasks: copyTasks(s.tasks), Loading: s.loading > 0, Err: s.errMsg}
}

// publishLocked queues the current state for subscribers; unlock delivers it.
func (s *Store) publishLocked() {
	if len(s.subs) == 0 {
		return
	}
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.pending = append(s.pending, notification{snap: s.snapshotLocked(), subs: subs})
}

// unlock releases s.mu, then calls subscribers for every state published
// while it was held.
func (s *Store) unlock() {
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, n := range pending {
		for _, fn := range n.subs {
			fn(Snapshot{Tasks: copyTasks(n.snap.Tasks), Loading: n.snap.Loading, Err: n.snap.Err})
		}
	}
}

type notification struct {
	snap Snapshot
	subs []func(Snapshot)
}

func copyTasks(in []api.Task) []api.Task {
	out := make([]api.Task, len(in))
	copy(out, in)
	return out
}
