package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"strings"

	_ "golang.org/x/image/webp"

	"github.com/vbonduro/photopoet/internal/domain"
)

// ErrUnsupportedReference is returned by Parse for references that are
// neither data URIs nor http(s) URLs.
var ErrUnsupportedReference = errors.New("unsupported photo reference")

const fallbackMIME = "application/octet-stream"

// allowedImageTypes is the set of MIME types accepted for uploaded photos.
// net/http.DetectContentType handles JPEG, PNG, and GIF via magic-byte
// sniffing. WebP is detected separately because the WHATWG sniff spec (and
// therefore the stdlib) does not include a WebP signature.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// Media is a parsed PhotoReference. Exactly one of Data or URL is set.
type Media struct {
	MIMEType string
	Data     []byte
	URL      string
}

// Inline reports whether the media carries its own bytes.
func (m Media) Inline() bool {
	return m.URL == ""
}

// Encode embeds data in a base64 data URI. When mimeType is empty the type is
// sniffed from the bytes. Any content is accepted.
func Encode(data []byte, mimeType string) domain.PhotoReference {
	if mimeType == "" {
		mimeType = sniff(data)
	}
	var b strings.Builder
	b.Grow(len("data:;base64,") + len(mimeType) + base64.StdEncoding.EncodedLen(len(data)))
	b.WriteString("data:")
	b.WriteString(mimeType)
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(data))
	return domain.PhotoReference(b.String())
}

// EncodeReader reads r to EOF and encodes the bytes with Encode.
func EncodeReader(r io.Reader, mimeType string) (domain.PhotoReference, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read photo: %w", err)
	}
	return Encode(data, mimeType), nil
}

// Parse resolves ref into its MIME type and bytes (data URIs) or passes a
// remote URL through untouched.
func Parse(ref domain.PhotoReference) (Media, error) {
	s := strings.TrimSpace(string(ref))
	lower := strings.ToLower(s)

	switch {
	case strings.HasPrefix(lower, "data:"):
		return parseDataURI(s)
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return Media{URL: s, MIMEType: mimeFromPath(lower)}, nil
	default:
		return Media{}, ErrUnsupportedReference
	}
}

func parseDataURI(s string) (Media, error) {
	header, payload, ok := strings.Cut(s[len("data:"):], ",")
	if !ok {
		return Media{}, fmt.Errorf("malformed data uri: missing payload separator")
	}

	params := strings.Split(header, ";")
	mimeType := strings.TrimSpace(params[0])
	isBase64 := false
	for _, p := range params[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			isBase64 = true
		}
	}

	var data []byte
	if isBase64 {
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			// Some encoders strip padding.
			decoded, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
			if err != nil {
				return Media{}, fmt.Errorf("malformed data uri: %w", err)
			}
		}
		data = decoded
	} else {
		unescaped, err := url.PathUnescape(payload)
		if err != nil {
			return Media{}, fmt.Errorf("malformed data uri: %w", err)
		}
		data = []byte(unescaped)
	}

	if mimeType == "" {
		mimeType = sniff(data)
	}
	return Media{MIMEType: mimeType, Data: data}, nil
}

// isWebP reports whether data is a WebP image (RIFF container with "WEBP" at
// offset 8).
func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WEBP"
}

// DetectImageMIME returns the detected MIME type and true if the data is an
// accepted image format, or ("", false) otherwise.
func DetectImageMIME(data []byte) (string, bool) {
	if isWebP(data) {
		return "image/webp", true
	}
	mime := http.DetectContentType(data)
	if allowedImageTypes[mime] {
		return mime, true
	}
	return "", false
}

func sniff(data []byte) string {
	if mime, ok := DetectImageMIME(data); ok {
		return mime
	}
	if len(data) == 0 {
		return fallbackMIME
	}
	mime, _, _ := strings.Cut(http.DetectContentType(data), ";")
	return mime
}

func mimeFromPath(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	switch {
	case strings.HasSuffix(p, ".png"):
		return "image/png"
	case strings.HasSuffix(p, ".gif"):
		return "image/gif"
	case strings.HasSuffix(p, ".webp"):
		return "image/webp"
	case strings.HasSuffix(p, ".jpg"), strings.HasSuffix(p, ".jpeg"):
		return "image/jpeg"
	default:
		return ""
	}
}

// Info describes a decoded image header.
type Info struct {
	Format string
	Width  int
	Height int
}

// Describe decodes only the image header. It is used for log fields; callers
// must not treat an error as a reason to reject the photo.
func Describe(data []byte) (Info, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("failed to decode image header: %w", err)
	}
	return Info{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}
