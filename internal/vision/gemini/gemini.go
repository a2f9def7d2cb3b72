package gemini

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/vbonduro/photopoet/internal/vision"
)

type GeminiWriter struct {
	client *genai.Client
	model  string
}

type Option func(*genai.ClientConfig)

// WithBaseURL overrides the Gemini API endpoint.
func WithBaseURL(u string) Option {
	return func(cc *genai.ClientConfig) { cc.HTTPOptions.BaseURL = u }
}

func WithHTTPClient(c *http.Client) Option {
	return func(cc *genai.ClientConfig) { cc.HTTPClient = c }
}

func NewGeminiWriter(ctx context.Context, apiKey, model string, opts ...Option) (*GeminiWriter, error) {
	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	for _, opt := range opts {
		opt(cc)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiWriter{client: client, model: model}, nil
}

// buildParts places the photo before the instruction, as Gemini recommends
// for single-image prompts.
func buildParts(photo vision.Photo) []*genai.Part {
	var img *genai.Part
	if photo.Remote() {
		img = &genai.Part{FileData: &genai.FileData{
			MIMEType: photo.MIMEType,
			FileURI:  photo.URL,
		}}
	} else {
		img = &genai.Part{InlineData: &genai.Blob{
			MIMEType: photo.MIMEType,
			Data:     photo.Data,
		}}
	}
	return []*genai.Part{img, {Text: vision.PoemPrompt}}
}

func (w *GeminiWriter) WritePoem(ctx context.Context, photo vision.Photo) (string, error) {
	contents := []*genai.Content{{Role: genai.RoleUser, Parts: buildParts(photo)}}

	resp, err := w.client.Models.GenerateContent(ctx, w.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", vision.ErrEmptyResponse
	}
	return resp.Text(), nil
}
