package security

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBodyLimit(t *testing.T) {
	cases := []struct {
		name        string
		limit       BodyLimit
		body        string
		contentType string
		declared    int64
		wantStatus  int
		wantCode    string
	}{
		{name: "within limit", limit: BodyLimit{Max: 10}, body: "hello", wantStatus: http.StatusOK},
		{name: "oversized stream", limit: BodyLimit{Max: 5}, body: "excessive", declared: -1, wantStatus: http.StatusRequestEntityTooLarge, wantCode: "PAYLOAD_TOO_LARGE"},
		{name: "declared too large", limit: BodyLimit{Max: 5}, body: "content", declared: 100, wantStatus: http.StatusRequestEntityTooLarge, wantCode: "PAYLOAD_TOO_LARGE"},
		{name: "json accepted", limit: BodyLimit{Max: 64, ContentTypes: []string{"application/json"}}, body: `{"a":1}`, contentType: "application/json; charset=utf-8", wantStatus: http.StatusOK},
		{name: "wrong media type", limit: BodyLimit{Max: 64, ContentTypes: []string{"application/json"}}, body: "a=1", contentType: "application/x-www-form-urlencoded", wantStatus: http.StatusUnsupportedMediaType, wantCode: "UNSUPPORTED_MEDIA_TYPE"},
		{name: "missing media type", limit: BodyLimit{Max: 64, ContentTypes: []string{"application/json"}}, body: "{}", wantStatus: http.StatusUnsupportedMediaType, wantCode: "UNSUPPORTED_MEDIA_TYPE"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var seen string
			handler := tc.limit.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				data, err := io.ReadAll(r.Body)
				require.NoError(t, err)
				require.Equal(t, int64(len(data)), r.ContentLength)
				seen = string(data)
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/v1/UK/leads/scale", strings.NewReader(tc.body))
			if tc.contentType != "" {
				req.Header.Set("Content-Type", tc.contentType)
			}
			if tc.declared != 0 {
				req.ContentLength = tc.declared
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			require.Equal(t, tc.wantStatus, rr.Code)
			if tc.wantCode != "" {
				require.Contains(t, rr.Body.String(), tc.wantCode)
				return
			}
			require.Equal(t, tc.body, seen)
		})
	}
}
