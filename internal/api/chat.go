package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"butler/cli/internal/apiclient"
)

type ChatAPI struct {
	c *apiclient.Client
}

func NewChatAPI(c *apiclient.Client) *ChatAPI {
	return &ChatAPI{c: c}
}

type SendResponse struct {
	UserMessage ChatMessage `json:"user_message"`
	Reply       ChatMessage `json:"reply"`
}

type ClearResponse struct {
	Message      string `json:"message"`
	DeletedCount int    `json:"deleted_count"`
}

type chatMessageEnvelope struct {
	Message ChatMessage `json:"message"`
}

type chatHistoryEnvelope struct {
	Messages []ChatMessage `json:"messages"`
}

func (a *ChatAPI) Send(ctx context.Context, message string) (SendResponse, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return SendResponse{}, apiclient.ValidationError("message is required")
	}
	return apiclient.Request[SendResponse](ctx, a.c, "/chat/message", apiclient.RequestOptions{
		Method: http.MethodPost,
		Body:   map[string]string{"message": message},
	})
}

func (a *ChatAPI) History(ctx context.Context, limit int) ([]ChatMessage, error) {
	var query url.Values
	if limit > 0 {
		query = url.Values{"limit": {strconv.Itoa(limit)}}
	}
	out, err := apiclient.Request[chatHistoryEnvelope](ctx, a.c, "/chat/history", apiclient.RequestOptions{Query: query})
	if err != nil {
		return nil, err
	}
	if out.Messages == nil {
		return []ChatMessage{}, nil
	}
	return out.Messages, nil
}

func (a *ChatAPI) Get(ctx context.Context, id string) (ChatMessage, error) {
	path, err := chatPath(id)
	if err != nil {
		return ChatMessage{}, err
	}
	out, err := apiclient.Request[chatMessageEnvelope](ctx, a.c, path, apiclient.RequestOptions{})
	return out.Message, err
}

func (a *ChatAPI) Update(ctx context.Context, id, content string) (ChatMessage, error) {
	path, err := chatPath(id)
	if err != nil {
		return ChatMessage{}, err
	}
	if strings.TrimSpace(content) == "" {
		return ChatMessage{}, apiclient.ValidationError("content is required")
	}
	out, err := apiclient.Request[chatMessageEnvelope](ctx, a.c, path, apiclient.RequestOptions{
		Method: http.MethodPatch,
		Body:   map[string]string{"content": content},
	})
	return out.Message, err
}

func (a *ChatAPI) Delete(ctx context.Context, id string) (MessageResponse, error) {
	path, err := chatPath(id)
	if err != nil {
		return MessageResponse{}, err
	}
	return apiclient.Request[MessageResponse](ctx, a.c, path, apiclient.RequestOptions{Method: http.MethodDelete})
}

func (a *ChatAPI) Clear(ctx context.Context) (ClearResponse, error) {
	return apiclient.Request[ClearResponse](ctx, a.c, "/chat/history", apiclient.RequestOptions{Method: http.MethodDelete})
}

func chatPath(id string) (string, error) {
	return resourcePath("/chat/messages", id, "", "message id")
}
