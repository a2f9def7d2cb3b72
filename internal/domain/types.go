package domain

import "time"

// PhotoReference is an opaque locator for image data: normally a base64
// data URI, occasionally a remote URL the model provider can resolve.
type PhotoReference string

// PoemResult is the model's generated text, returned verbatim.
type PoemResult string

// SavedPoemEntry is one poem the user chose to keep in the gallery.
type SavedPoemEntry struct {
	ID    string         `json:"id"`
	Photo PhotoReference `json:"photo"`
	Poem  PoemResult     `json:"poem"`
	Date  time.Time      `json:"date"`
}

// GenerationRequest is the wire shape accepted by the generation endpoints.
type GenerationRequest struct {
	PhotoURL string `json:"photoUrl"`
}

// GenerationResponse is the wire shape returned by the generation endpoints.
type GenerationResponse struct {
	Poem string `json:"poem"`
}

// PoemFilename is the download name used when a poem is exported as text.
const PoemFilename = "poem.txt"
