package locale

import (
	"net/http"

	"github.com/noah-isme/showcase-api/internal/common"
)

// Handler exposes the route resolver.
type Handler struct {
	Resolver Resolver
}

// Resolve handles GET /api/v1/routes/resolve?path=/US/pricing.
func (h Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	route := h.Resolver.Resolve(path)
	// follow the chain so clients land on a page in one round trip
	final := route
	for i := 0; i < 4 && final.Redirected(); i++ {
		final = h.Resolver.Resolve(final.Redirect)
	}
	common.Data(w, http.StatusOK, route, map[string]any{"final": final})
}
