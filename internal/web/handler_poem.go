package web

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/vbonduro/photopoet/internal/domain"
	"github.com/vbonduro/photopoet/internal/media"
	"github.com/vbonduro/photopoet/internal/service"
)

const maxPhotoSize = 50 * 1024 * 1024 // 50 MB

// poemView is the data behind partials/poem.html.
type poemView struct {
	Photo  domain.PhotoReference
	Poem   string
	Failed bool
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.renderPage(w,
		map[string]any{"ActiveNav": "create"},
		"base.html", "pages/index.html",
	); err != nil {
		s.logger.Error("render page failed", "error", err)
	}
}

// uploadError is a rejected upload: the status to answer with and a message
// fit to show the user.
type uploadError struct {
	status int
	msg    string
}

// readUpload returns the bytes and MIME type of the "image" field of a
// multipart form. The type is sniffed from the content; when sniffing does
// not recognize it, an image/* type declared on the part is trusted so that
// formats such as HEIC reach the model.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, *uploadError) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoSize)
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", &uploadError{http.StatusRequestEntityTooLarge, "That photo is too large. The limit is 50 MB."}
		}
		return nil, "", &uploadError{http.StatusBadRequest, "Could not read the upload. Please choose a photo."}
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		return nil, "", &uploadError{http.StatusBadRequest, "Please choose a photo first."}
	}
	defer closeWithLog(file, "upload file", s.logger)

	data, err := io.ReadAll(file)
	if err != nil {
		s.logger.Error("read upload failed", "error", err)
		return nil, "", &uploadError{http.StatusBadRequest, "Could not read the upload. Please try again."}
	}
	if len(data) == 0 {
		return nil, "", &uploadError{http.StatusBadRequest, "The chosen file is empty."}
	}

	if mimeType, ok := media.DetectImageMIME(data); ok {
		return data, mimeType, nil
	}
	if declared, _, err := mime.ParseMediaType(header.Header.Get("Content-Type")); err == nil && strings.HasPrefix(declared, "image/") {
		s.logger.Debug("using declared upload type", "mime_type", declared)
		return data, declared, nil
	}
	return nil, "", &uploadError{http.StatusBadRequest, "That file does not look like an image."}
}

// handleGeneratePoem accepts an uploaded photo and renders the poem partial.
// Generation failures still render with status 200 so that HTMX swaps in
// the fallback message.
func (s *Server) handleGeneratePoem(w http.ResponseWriter, r *http.Request) {
	data, mimeType, uerr := s.readUpload(w, r)
	if uerr != nil {
		s.renderNotice(w, uerr.status, uerr.msg)
		return
	}

	photo, poem, err := s.poems.GenerateFromUpload(r.Context(), data, mimeType)
	view := poemView{Photo: photo, Poem: string(poem)}
	if err != nil {
		s.logger.Error("generate poem failed", "error", err)
		view.Poem = service.FallbackMessage
		view.Failed = true
	}

	if err := s.renderPartial(w, "partials/poem.html", view); err != nil {
		s.logger.Error("render partial failed", "error", err)
	}
}

// handleExportText returns the posted poem as a poem.txt download.
func (s *Server) handleExportText(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoSize)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}
	s.writeTextAttachment(w, r.PostForm.Get("poem"))
}

func (s *Server) handleAPIGeneratePoem(w http.ResponseWriter, r *http.Request) {
	var (
		poem domain.PoemResult
		err  error
	)

	if isMultipart(r) {
		data, mimeType, uerr := s.readUpload(w, r)
		if uerr != nil {
			s.writeJSONError(w, uerr.status, uerr.msg)
			return
		}
		_, poem, err = s.poems.GenerateFromUpload(r.Context(), data, mimeType)
	} else {
		var req domain.GenerationRequest
		if !s.decodeJSON(w, r, &req) {
			return
		}
		poem, err = s.poems.Generate(r.Context(), domain.PhotoReference(req.PhotoURL))
	}

	switch {
	case err == nil:
		s.writeJSON(w, http.StatusOK, domain.GenerationResponse{Poem: string(poem)})
	case errors.Is(err, service.ErrInputMissing):
		s.writeJSONError(w, http.StatusBadRequest, "photoUrl is required")
	case errors.Is(err, media.ErrUnsupportedReference):
		s.writeJSONError(w, http.StatusBadRequest, "photoUrl must be a data URI or http(s) URL")
	default:
		s.logger.Error("generate poem failed", "error", err)
		s.writeJSONError(w, http.StatusBadGateway, service.FallbackMessage)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"busy":     s.poems.Busy(),
		"inFlight": s.poems.InFlight(),
	})
}
