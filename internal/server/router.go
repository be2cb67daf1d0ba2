// Package server exposes the sidecar's HTTP surface.
package server

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/ppiankov/kubepulse/internal/cluster"
	"github.com/ppiankov/kubepulse/internal/ratelimit"
	"github.com/ppiankov/kubepulse/internal/status"
	"go.uber.org/zap"
)

// DefaultMaxBodyBytes caps POST bodies when Deps.MaxBodyBytes is unset.
const DefaultMaxBodyBytes = 1 << 20

// ReportSource produces a fresh deployment report per call.
type ReportSource interface {
	Report(ctx context.Context) status.Report
}

// PolicyCreator submits isolation policies.
type PolicyCreator interface {
	Create(ctx context.Context, name, namespace string, labels map[string]string) error
}

// WriteLimiter decides whether a cluster write may proceed.
type WriteLimiter interface {
	CheckAndIncrement(namespace string) ratelimit.Result
}

// Deps is everything a handler needs. It is copied into each handler at
// construction and never mutated afterwards.
type Deps struct {
	Cluster      cluster.Client
	Reports      ReportSource
	Policies     PolicyCreator
	Limiter      WriteLimiter // optional
	Logger       *zap.Logger
	MaxBodyBytes int64
}

// NewRouter wires every route. Unknown paths and wrong methods both get 404.
func NewRouter(d Deps) http.Handler {
	if d.MaxBodyBytes <= 0 {
		d.MaxBodyBytes = DefaultMaxBodyBytes
	}

	// Paths are matched exactly as sent; "//healthz" is not "/healthz".
	router := mux.NewRouter().SkipClean(true)
	router.HandleFunc("/healthz", healthz()).Methods(http.MethodGet)
	router.HandleFunc("/version", version(d)).Methods(http.MethodGet)
	router.HandleFunc("/deployments", deployments(d)).Methods(http.MethodGet)
	router.HandleFunc("/create-network-policy", createNetworkPolicy(d)).Methods(http.MethodPost)

	notFound := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})
	router.NotFoundHandler = notFound
	router.MethodNotAllowedHandler = notFound

	// Wrapped outside the router so unmatched requests are logged too.
	var h http.Handler = router
	h = maxBodySize(d.MaxBodyBytes)(h)
	h = recoveryMiddleware(d.Logger)(h)
	h = loggingMiddleware(d.Logger)(h)
	return h
}
