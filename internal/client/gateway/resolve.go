package gateway

import (
	"context"

	"github.com/fieldsync/fieldsync/internal/client/models"
)

// RequestSpec is one candidate call for Resolve.
type RequestSpec struct {
	Method string
	Path   string
	Body   any
}

// Get is shorthand for a GET candidate.
func Get(path string) RequestSpec {
	return RequestSpec{Method: "GET", Path: path}
}

// Resolve tries candidates in order and returns the first success. When all
// of them fail it returns the last failure. An empty list is an internal
// failure.
func (g *Gateway) Resolve(ctx context.Context, candidates ...RequestSpec) models.Envelope {
	last := models.Fail(models.KindInternal, 0, "no endpoint candidates")
	for i, c := range candidates {
		last = g.Request(ctx, c.Method, c.Path, c.Body)
		if last.Success {
			if i > 0 {
				g.log.Debug(ctx, "resolved via fallback endpoint", "path", c.Path, "attempt", i+1)
			}
			return last
		}
		if ctx.Err() != nil {
			break
		}
	}
	return last
}
