package claude

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/vbonduro/photopoet/internal/vision"
)

// maxTokens leaves room for a long free-verse poem; typical answers are
// well under 400 tokens.
const maxTokens = 1024

type ClaudeWriter struct {
	client *anthropic.Client
	model  string
}

type Option func(*options)

type options struct {
	baseURL    string
	httpClient *http.Client
}

// WithBaseURL points the client at a different Messages API root.
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = u }
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

func NewClaudeWriter(apiKey, model string, opts ...Option) *ClaudeWriter {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	var clientOpts []anthropic.ClientOption
	if o.baseURL != "" {
		clientOpts = append(clientOpts, anthropic.WithBaseURL(o.baseURL))
	}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, anthropic.WithHTTPClient(o.httpClient))
	}

	return &ClaudeWriter{
		client: anthropic.NewClient(apiKey, clientOpts...),
		model:  model,
	}
}

// buildMessages constructs the Messages API payload for a vision request.
func buildMessages(photo vision.Photo) []anthropic.Message {
	return []anthropic.Message{{
		Role: anthropic.RoleUser,
		Content: []anthropic.MessageContent{
			anthropic.NewImageMessageContent(anthropic.NewMessageContentSource(
				anthropic.MessagesContentSourceTypeBase64,
				normaliseMIME(photo.MIMEType),
				base64.StdEncoding.EncodeToString(photo.Data),
			)),
			anthropic.NewTextMessageContent(vision.PoemPrompt),
		},
	}}
}

func (w *ClaudeWriter) WritePoem(ctx context.Context, photo vision.Photo) (string, error) {
	if photo.Remote() {
		return "", vision.ErrRemoteNotSupported
	}

	resp, err := w.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(w.model),
		MaxTokens: maxTokens,
		Messages:  buildMessages(photo),
	})
	if err != nil {
		return "", fmt.Errorf("failed to call claude: %w", err)
	}

	if len(resp.Content) == 0 {
		return "", vision.ErrEmptyResponse
	}
	return resp.GetFirstContentText(), nil
}

// normaliseMIME maps browser MIME types to the values the Anthropic API accepts.
// The Anthropic API accepts only jpeg, png, gif, and webp. Unknown types are
// coerced to jpeg; the API rejects the image if the bytes disagree.
func normaliseMIME(mimeType string) string {
	switch mimeType {
	case "image/png", "image/gif", "image/webp":
		return mimeType
	default:
		return "image/jpeg"
	}
}
