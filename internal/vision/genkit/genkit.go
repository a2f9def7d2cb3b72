package genkit

import (
	"context"
	"fmt"
	"net/http"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"

	"github.com/vbonduro/photopoet/internal/vision"
)

// FlowName is the registered name of the poem flow; the HTTP route serving it
// is "POST /" + FlowName.
const FlowName = "generatePoemFromPhotoFlow"

// PoemInput is the flow input. PhotoURL may be a data URI.
type PoemInput struct {
	PhotoURL string `json:"photoUrl" jsonschema:"description=The URL of the uploaded photo."`
}

// PoemOutput is the flow output.
type PoemOutput struct {
	Poem string `json:"poem" jsonschema:"description=The generated poem based on the photo."`
}

type GenkitWriter struct {
	flow *core.Flow[PoemInput, PoemOutput, struct{}]
}

// NewGoogleAIWriter initializes Genkit with the Google AI plugin and defines
// the poem flow on it.
func NewGoogleAIWriter(ctx context.Context, apiKey, model string) (*GenkitWriter, error) {
	g, err := genkit.Init(ctx,
		genkit.WithPlugins(&googlegenai.GoogleAI{APIKey: apiKey}),
		genkit.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genkit: %w", err)
	}
	return NewGenkitWriter(g, model), nil
}

// NewGenkitWriter defines the poem flow on an initialized Genkit instance.
// model is a registered model name such as "googleai/gemini-2.5-flash".
func NewGenkitWriter(g *genkit.Genkit, model string) *GenkitWriter {
	flow := genkit.DefineFlow(g, FlowName, func(ctx context.Context, in PoemInput) (PoemOutput, error) {
		resp, err := genkit.Generate(ctx, g,
			ai.WithModelName(model),
			ai.WithMessages(ai.NewUserMessage(
				ai.NewTextPart(vision.PoemPrompt+"\n\nPhoto: "),
				ai.NewMediaPart(mediaType(in.PhotoURL), in.PhotoURL),
			)),
			ai.WithOutputType(PoemOutput{}),
		)
		if err != nil {
			return PoemOutput{}, fmt.Errorf("failed to generate poem: %w", err)
		}

		var out PoemOutput
		if err := resp.Output(&out); err != nil {
			return PoemOutput{}, fmt.Errorf("failed to parse model output: %w", err)
		}
		return out, nil
	})
	return &GenkitWriter{flow: flow}
}

func (w *GenkitWriter) WritePoem(ctx context.Context, photo vision.Photo) (string, error) {
	out, err := w.flow.Run(ctx, PoemInput{PhotoURL: photo.DataURI()})
	if err != nil {
		return "", err
	}
	return out.Poem, nil
}

// Handler serves the flow over HTTP using Genkit's flow wire format.
func (w *GenkitWriter) Handler() http.HandlerFunc {
	return genkit.Handler(w.flow)
}

// Route is the pattern Handler should be mounted on.
func (w *GenkitWriter) Route() string {
	return "POST /flows/" + FlowName
}

// mediaType extracts the MIME type from a data URI; remote URLs are left to
// the model plugin to resolve.
func mediaType(u string) string {
	const prefix = "data:"
	if len(u) <= len(prefix) || u[:len(prefix)] != prefix {
		return ""
	}
	for i := len(prefix); i < len(u); i++ {
		if u[i] == ';' || u[i] == ',' {
			return u[len(prefix):i]
		}
	}
	return ""
}
