package security

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/noah-isme/showcase-api/internal/common"
)

// BodyLimit guards the lead form endpoints. Bodies over Max bytes get 413.
// When ContentTypes is set, any other media type gets 415.
type BodyLimit struct {
	Max          int64
	ContentTypes []string
}

// Middleware buffers the body so handlers always see a complete payload with
// an accurate ContentLength.
func (b BodyLimit) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body == nil || r.Body == http.NoBody {
			next.ServeHTTP(w, r)
			return
		}
		if !b.acceptsType(r.Header.Get("Content-Type")) {
			common.JSONError(w, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "unsupported content type",
				map[string]any{"accepted": b.ContentTypes})
			return
		}
		if b.Max <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		if r.ContentLength > b.Max {
			tooLarge(w, b.Max)
			return
		}

		buf, err := io.ReadAll(http.MaxBytesReader(w, r.Body, b.Max))
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				tooLarge(w, b.Max)
				return
			}
			common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body", nil)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(buf))
		r.ContentLength = int64(len(buf))
		next.ServeHTTP(w, r)
	})
}

func (b BodyLimit) acceptsType(header string) bool {
	if len(b.ContentTypes) == 0 {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return false
	}
	for _, allowed := range b.ContentTypes {
		if mediaType == allowed {
			return true
		}
	}
	return false
}

func tooLarge(w http.ResponseWriter, max int64) {
	common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request entity too large",
		map[string]any{"max_bytes": max})
}
