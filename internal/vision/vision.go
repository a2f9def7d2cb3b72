package vision

import (
	"context"
	"errors"
	"fmt"

	"github.com/vbonduro/photopoet/internal/media"
)

// PoemPrompt is the shared instruction sent by all vision adapters alongside
// the photo.
const PoemPrompt = `You are a creative poet. Analyze the visual elements of the photo and write a poem inspired by its content. Consider the theme, mood, and imagery present in the photo.`

// ErrRemoteNotSupported is returned by adapters that can only send inline
// image bytes when given a remote URL.
var ErrRemoteNotSupported = errors.New("remote photo urls are not supported by this backend")

// ErrEmptyResponse is returned when the model answered without any text.
var ErrEmptyResponse = errors.New("model returned no text")

// Photo is the image handed to a model: inline bytes or a remote URL.
type Photo struct {
	MIMEType string
	Data     []byte
	URL      string
}

// PhotoFromMedia converts a parsed reference.
func PhotoFromMedia(m media.Media) Photo {
	return Photo{MIMEType: m.MIMEType, Data: m.Data, URL: m.URL}
}

// Remote reports whether the photo must be fetched by the provider.
func (p Photo) Remote() bool {
	return p.URL != ""
}

// DataURI renders the photo as a URL usable in a media part.
func (p Photo) DataURI() string {
	if p.Remote() {
		return p.URL
	}
	return string(media.Encode(p.Data, p.MIMEType))
}

// PoemWriter sends PoemPrompt and a photo to a generative model and returns
// the model's text unchanged.
type PoemWriter interface {
	WritePoem(ctx context.Context, photo Photo) (string, error)
}

// Func adapts a plain function to PoemWriter.
type Func func(ctx context.Context, photo Photo) (string, error)

func (f Func) WritePoem(ctx context.Context, photo Photo) (string, error) {
	return f(ctx, photo)
}

// StatusError is returned when a provider answers with a non-success HTTP
// status.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}
