package web

import (
	"html/template"
	"testing"

	"github.com/vbonduro/photopoet/internal/domain"
)

func TestPhotoSrc(t *testing.T) {
	tests := []struct {
		name string
		ref  domain.PhotoReference
		want template.URL
	}{
		{name: "image data uri", ref: "data:image/png;base64,AA==", want: "data:image/png;base64,AA=="},
		{name: "https url", ref: "https://example.com/a.jpg", want: "https://example.com/a.jpg"},
		{name: "http url", ref: "http://example.com/a.jpg", want: "http://example.com/a.jpg"},
		{name: "non-image data uri", ref: "data:text/html;base64,PHNjcmlwdD4=", want: ""},
		{name: "javascript", ref: "javascript:alert(1)", want: ""},
		{name: "empty", ref: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := photoSrc(tt.ref); got != tt.want {
				t.Errorf("photoSrc(%q) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}
}
