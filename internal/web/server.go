package web

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/vbonduro/photopoet/internal/domain"
	"github.com/vbonduro/photopoet/internal/service"
)

type Server struct {
	poems     *service.PoemService
	gallery   *service.GalleryService
	templates fs.FS
	mux       *http.ServeMux
	tmplFuncs template.FuncMap
	logger    *slog.Logger
}

func NewServer(poems *service.PoemService, gallery *service.GalleryService, tmpl fs.FS, logger *slog.Logger) *Server {
	s := &Server{
		poems:     poems,
		gallery:   gallery,
		templates: tmpl,
		mux:       http.NewServeMux(),
		logger:    logger,
		tmplFuncs: template.FuncMap{
			"photoSrc":   photoSrc,
			"formatDate": formatDate,
		},
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("POST /poems", s.handleGeneratePoem)
	s.mux.HandleFunc("GET /gallery", s.handleGallery)
	s.mux.HandleFunc("POST /gallery", s.handleSaveEntry)
	s.mux.HandleFunc("DELETE /gallery/{id}", s.handleDeleteEntry)
	s.mux.HandleFunc("POST /export", s.handleExportText)

	s.mux.HandleFunc("POST /api/poems", s.handleAPIGeneratePoem)
	s.mux.HandleFunc("GET /api/gallery", s.handleAPIListGallery)
	s.mux.HandleFunc("POST /api/gallery", s.handleAPISaveEntry)
	s.mux.HandleFunc("DELETE /api/gallery/{id}", s.handleAPIDeleteEntry)
	s.mux.HandleFunc("GET /api/gallery/{id}/poem.txt", s.handleAPIExportEntry)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
}

// Handle mounts an additional handler, such as a Genkit flow endpoint, on
// the server's mux. It must be called before the server starts serving.
func (s *Server) Handle(pattern string, h http.Handler) {
	s.mux.Handle(pattern, h)
}

// securityHeaders sets CSP, framing and sniffing headers on every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy",
			"default-src 'self'; "+
				"script-src 'self' 'unsafe-inline' https://unpkg.com; "+
				"style-src 'self' 'unsafe-inline' https://fonts.googleapis.com; "+
				"font-src https://fonts.gstatic.com; "+
				"img-src 'self' data: https:; "+
				"connect-src 'self'")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, securityHeaders(s.mux)).ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully, giving in-flight generations up to a minute to finish.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.logger.Info("starting server", "addr", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server", "in_flight", s.poems.InFlight())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// renderPage parses and executes a full-page template set.
func (s *Server) renderPage(w http.ResponseWriter, data any, files ...string) error {
	tmpl, err := template.New("").Funcs(s.tmplFuncs).ParseFS(s.templates, files...)
	if err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return tmpl.ExecuteTemplate(w, "base", data)
}

// renderPartial parses and executes a single named partial template.
// The file must contain exactly one {{define "name"}}...{{end}} block.
func (s *Server) renderPartial(w http.ResponseWriter, file string, data any) error {
	tmpl, err := template.New("").Funcs(s.tmplFuncs).ParseFS(s.templates, file)
	if err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	// ParseFS registers both the file-basename template and any {{define}}
	// blocks; the partial is the one named neither "" nor the basename.
	basename := file
	if idx := strings.LastIndexByte(file, '/'); idx >= 0 {
		basename = file[idx+1:]
	}
	for _, t := range tmpl.Templates() {
		if n := t.Name(); n != "" && n != basename {
			return t.Execute(w, data)
		}
	}
	return tmpl.ExecuteTemplate(w, basename, data)
}

// renderNotice answers an HTMX request with an alert fragment. base.html
// configures HTMX to swap 4xx and 5xx bodies, so msg lands in the request's
// target unless the handler retargets it.
func (s *Server) renderNotice(w http.ResponseWriter, status int, msg string) {
	tmpl, err := template.ParseFS(s.templates, "partials/notice.html")
	if err != nil {
		s.logger.Error("render notice failed", "error", err)
		http.Error(w, msg, status)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "notice", msg); err != nil {
		s.logger.Error("render notice failed", "error", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("write json failed", "error", err)
	}
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// writeTextAttachment sends text as a downloadable poem.txt file.
func (s *Server) writeTextAttachment(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+domain.PoemFilename+`"`)
	if _, err := io.WriteString(w, text); err != nil {
		s.logger.Error("write export failed", "error", err)
	}
}

// photoSrc marks a photo reference safe for an img src attribute. Only
// image data URIs and http(s) URLs pass; anything else renders empty.
func photoSrc(ref domain.PhotoReference) template.URL {
	s := string(ref)
	switch {
	case strings.HasPrefix(s, "data:image/"),
		strings.HasPrefix(s, "https://"),
		strings.HasPrefix(s, "http://"):
		return template.URL(s)
	default:
		return ""
	}
}

func formatDate(t time.Time) string {
	return t.Local().Format("Jan 2, 2006 3:04 PM")
}

// closeWithLog closes c and logs any error, using label to identify the resource.
func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close resource", "label", label, "error", err)
	}
}
