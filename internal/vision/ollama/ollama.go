package ollama

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/vbonduro/photopoet/internal/vision"
)

type generateRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Images []string `json:"images"`
	Stream bool     `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

type OllamaWriter struct {
	host   string
	model  string
	client *http.Client
}

func NewOllamaWriter(host, model string) *OllamaWriter {
	return &OllamaWriter{
		host:   host,
		model:  model,
		client: &http.Client{},
	}
}

func (w *OllamaWriter) WritePoem(ctx context.Context, photo vision.Photo) (string, error) {
	if photo.Remote() {
		return "", vision.ErrRemoteNotSupported
	}

	payload, err := json.Marshal(generateRequest{
		Model:  w.model,
		Prompt: vision.PoemPrompt,
		Images: []string{base64.StdEncoding.EncodeToString(photo.Data)},
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.host+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call ollama: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("failed to close ollama response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &vision.StatusError{Provider: "ollama", StatusCode: resp.StatusCode, Body: string(errBody)}
	}

	var respBody generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&respBody); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if respBody.Error != "" {
		return "", fmt.Errorf("ollama error: %s", respBody.Error)
	}

	return respBody.Response, nil
}
