package obs

import (
	"context"
	"sync"

	"github.com/go-chi/chi/v5"
)

// RequestInfo collects labels discovered while a request is routed. The
// outermost middleware installs it so loggers and metrics wrapping the router
// can read values set further in, after the handler returns.
type RequestInfo struct {
	mu     sync.Mutex
	route  string
	region string
}

type requestInfoKey struct{}

// WithRequestInfo returns ctx carrying a RequestInfo, reusing an existing one.
func WithRequestInfo(ctx context.Context) (context.Context, *RequestInfo) {
	if ctx == nil {
		ctx = context.Background()
	}
	if info := RequestInfoFrom(ctx); info != nil {
		return ctx, info
	}
	info := &RequestInfo{}
	return context.WithValue(ctx, requestInfoKey{}, info), info
}

// RequestInfoFrom returns the request's RequestInfo or nil.
func RequestInfoFrom(ctx context.Context) *RequestInfo {
	if ctx == nil {
		return nil
	}
	info, _ := ctx.Value(requestInfoKey{}).(*RequestInfo)
	return info
}

// SetRoute records the matched route pattern.
func (i *RequestInfo) SetRoute(pattern string) {
	if i == nil {
		return
	}
	i.mu.Lock()
	i.route = pattern
	i.mu.Unlock()
}

// Route returns the recorded route pattern.
func (i *RequestInfo) Route() string {
	if i == nil {
		return ""
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.route
}

// SetRegion records the site region the request was made for.
func (i *RequestInfo) SetRegion(region string) {
	if i == nil {
		return
	}
	i.mu.Lock()
	i.region = region
	i.mu.Unlock()
}

// Region returns the recorded region, empty outside regional routes.
func (i *RequestInfo) Region() string {
	if i == nil {
		return ""
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.region
}

// WithRoutePattern stores the matched router pattern on the context.
func WithRoutePattern(ctx context.Context, pattern string) context.Context {
	ctx, info := WithRequestInfo(ctx)
	info.SetRoute(pattern)
	return ctx
}

// RoutePatternFromContext returns the recorded pattern, falling back to chi's
// routing context which is complete once the handler has run.
func RoutePatternFromContext(ctx context.Context) string {
	if route := RequestInfoFrom(ctx).Route(); route != "" {
		return route
	}
	if ctx == nil {
		return ""
	}
	if rc := chi.RouteContext(ctx); rc != nil {
		return rc.RoutePattern()
	}
	return ""
}

// RegionFromContext returns the region recorded for the request.
func RegionFromContext(ctx context.Context) string {
	return RequestInfoFrom(ctx).Region()
}
