package guard

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-print"
)

// Option configures the HTTP guards
type Option func(*engine)

// WithRoutes overrides the login and landing paths
func WithRoutes(routes Routes) Option {
	return func(e *engine) {
		e.routes = routes.withDefaults()
	}
}

// WithLogger sets the logger
func WithLogger(logger Logger) Option {
	return func(e *engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics records guard decisions and auth checks
func WithMetrics(m *Metrics) Option {
	return func(e *engine) {
		e.metrics = m
	}
}

// WithSessionCache replaces the per credential store cache
func WithSessionCache(cache *StoreCache) Option {
	return func(e *engine) {
		if cache != nil {
			e.sessions = cache
		}
	}
}

// engine holds what the go-router and fiber adapters share
type engine struct {
	cfg        Config
	routes     Routes
	resolver   SessionResolver
	sessions   *StoreCache
	metrics    *Metrics
	logger     Logger
	extractors []extractor
}

func newEngine(resolver SessionResolver, cfg Config, opts ...Option) (*engine, error) {
	if resolver == nil {
		return nil, ErrResolverRequired
	}
	if cfg == nil {
		cfg = DefaultOptions()
	}
	if v, ok := cfg.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}

	e := &engine{
		cfg:      cfg,
		routes:   DefaultRoutes(),
		resolver: resolver,
		logger:   defLogger{},
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.sessions == nil {
		e.sessions = NewStoreCache(
			cfg.GetSessionCacheTTL(),
			WithStoreLogger(e.logger),
			WithStoreMetrics(e.metrics),
		)
	}
	e.extractors = parseTokenLookup(cfg.GetTokenLookup(), cfg.GetAuthScheme())

	return e, nil
}

// stateFor returns the auth state for a credential. Requests without a
// credential get an anonymous session that is already checked.
func (e *engine) stateFor(credential string) AuthState {
	if credential == "" {
		return NewResolvedStore(nil)
	}
	// the check can outlive the request that carried the credential
	credential = strings.Clone(credential)
	resolver := e.resolver
	return e.sessions.Get(credential, func(ctx context.Context) (*User, error) {
		return resolver.Resolve(ctx, credential)
	})
}

// evaluate triggers the check, gives a pending check up to the configured
// timeout to finish and then asks decide for the outcome.
func (e *engine) evaluate(ctx context.Context, guardName string, state AuthState, decide func(Snapshot) Outcome) Outcome {
	EnsureChecked(ctx, state)

	if waiter, ok := state.(Waiter); ok {
		if timeout := e.cfg.GetCheckTimeout(); timeout > 0 {
			wctx, cancel := context.WithTimeout(ctx, timeout)
			if err := waiter.Wait(wctx); err != nil {
				e.logger.Debug("auth check still pending", "guard", guardName, "error", err)
			}
			cancel()
		}
	}

	outcome := decide(SnapshotOf(state))
	e.metrics.RecordDecision(guardName, outcome)

	if outcome.IsRedirect() {
		e.logger.Info("guard redirect", "guard", guardName, "outcome", print.MaybePrettyJSON(outcome))
	} else {
		e.logger.Debug("guard decision", "guard", guardName, "outcome", outcome.String())
	}

	return outcome
}

// forget drops the cached state for a credential
func (e *engine) forget(credential string) {
	if credential != "" {
		e.sessions.Forget(credential)
	}
}

// localRedirect only accepts same site paths, anything else falls back to
// the configured default.
func (e *engine) localRedirect(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return e.cfg.GetRejectedRouteDefault()
	}
	return target
}

func (e *engine) rejectedRouteExpiry() time.Time {
	return time.Now().Add(5 * time.Minute)
}

func (e *engine) loadingBind(path string) map[string]any {
	return map[string]any{
		"refresh": e.cfg.GetRefreshInterval(),
		"path":    path,
	}
}

// redirectStatus keeps GET requests on 302 and turns form posts into GETs
func redirectStatus(method string) int {
	if method == http.MethodGet || method == http.MethodHead {
		return http.StatusFound
	}
	return http.StatusSeeOther
}
