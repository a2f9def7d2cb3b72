package web

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/vbonduro/photopoet/internal/domain"
	"github.com/vbonduro/photopoet/internal/service"
)

func (s *Server) handleGallery(w http.ResponseWriter, r *http.Request) {
	entries, err := s.gallery.List(r.Context())
	if err != nil {
		http.Error(w, "failed to load gallery", http.StatusInternalServerError)
		s.logger.Error("list gallery failed", "error", err)
		return
	}

	if err := s.renderPage(w,
		map[string]any{"Entries": entries, "ActiveNav": "gallery"},
		"base.html", "pages/gallery.html", "partials/gallery_entry.html",
	); err != nil {
		s.logger.Error("render page failed", "error", err)
	}
}

// handleSaveEntry saves the posted poem and renders its gallery card. Errors
// render as a notice in the save target.
func (s *Server) handleSaveEntry(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 2*maxPhotoSize)
	if err := r.ParseForm(); err != nil {
		s.renderNotice(w, http.StatusBadRequest, "Could not read the poem to save. Please try again.")
		return
	}

	entry, err := s.gallery.Save(r.Context(),
		domain.PhotoReference(r.PostForm.Get("photo")),
		domain.PoemResult(r.PostForm.Get("poem")),
	)
	if errors.Is(err, service.ErrInputMissing) {
		s.renderNotice(w, http.StatusBadRequest, "There is no photo to save.")
		return
	}
	if err != nil {
		s.logger.Error("save entry failed", "error", err)
		s.renderNotice(w, http.StatusInternalServerError, "Could not save the poem. Please try again.")
		return
	}

	if err := s.renderPartial(w, "partials/gallery_entry.html", entry); err != nil {
		s.logger.Error("render partial failed", "error", err)
	}
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.gallery.Delete(r.Context(), id); err != nil {
		s.logger.Error("delete entry failed", "id", id, "error", err)
		// Keep the card and show the failure in its notice slot.
		w.Header().Set("HX-Retarget", "#entry-"+id+" .notice")
		w.Header().Set("HX-Reswap", "innerHTML")
		s.renderNotice(w, http.StatusInternalServerError, "Could not delete the poem. Please try again.")
		return
	}
	// Empty 200 body lets HTMX remove the card.
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleAPIListGallery(w http.ResponseWriter, r *http.Request) {
	entries, err := s.gallery.List(r.Context())
	if err != nil {
		s.logger.Error("list gallery failed", "error", err)
		s.writeJSONError(w, http.StatusInternalServerError, "failed to load gallery")
		return
	}
	s.writeJSON(w, http.StatusOK, entries)
}

type saveEntryRequest struct {
	Photo string `json:"photo"`
	Poem  string `json:"poem"`
}

func (s *Server) handleAPISaveEntry(w http.ResponseWriter, r *http.Request) {
	var req saveEntryRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	entry, err := s.gallery.Save(r.Context(), domain.PhotoReference(req.Photo), domain.PoemResult(req.Poem))
	if errors.Is(err, service.ErrInputMissing) {
		s.writeJSONError(w, http.StatusBadRequest, "photo is required")
		return
	}
	if err != nil {
		s.logger.Error("save entry failed", "error", err)
		s.writeJSONError(w, http.StatusInternalServerError, "failed to save poem")
		return
	}
	s.writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleAPIDeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := s.gallery.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.logger.Error("delete entry failed", "id", r.PathValue("id"), "error", err)
		s.writeJSONError(w, http.StatusInternalServerError, "failed to delete poem")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAPIExportEntry(w http.ResponseWriter, r *http.Request) {
	text, err := s.gallery.Export(r.Context(), r.PathValue("id"))
	if errors.Is(err, service.ErrEntryNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, "failed to export poem", http.StatusInternalServerError)
		s.logger.Error("export entry failed", "id", r.PathValue("id"), "error", err)
		return
	}
	s.writeTextAttachment(w, text)
}

// decodeJSON reads a JSON request body into v. It writes the 400 response
// itself when it returns false.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 2*maxPhotoSize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}
