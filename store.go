package guard

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/goliatone/go-route-guard")

const defaultCheckTimeout = 10 * time.Second

// CheckFunc resolves the current session. A nil user with a nil error
// means there is no session.
type CheckFunc func(ctx context.Context) (*User, error)

// Store is an AuthState backed by a CheckFunc. The check runs at most once
// until Reset is called.
type Store struct {
	mu            sync.RWMutex
	check         CheckFunc
	authenticated bool
	checking      bool
	completed     bool
	user          *User
	err           error
	done          chan struct{}

	timeout time.Duration
	logger  Logger
	metrics *Metrics
}

var _ AuthState = (*Store)(nil)
var _ Snapshotter = (*Store)(nil)
var _ Waiter = (*Store)(nil)

// StoreOption configures a Store
type StoreOption func(*Store)

// WithCheckTimeout bounds how long a single check may run
func WithCheckTimeout(d time.Duration) StoreOption {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithStoreLogger sets the logger used to report failed checks
func WithStoreLogger(logger Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStoreMetrics records each finished check
func WithStoreMetrics(m *Metrics) StoreOption {
	return func(s *Store) {
		s.metrics = m
	}
}

// NewStore returns a store that has not been checked yet
func NewStore(check CheckFunc, opts ...StoreOption) *Store {
	s := &Store{
		check:   check,
		done:    make(chan struct{}),
		timeout: defaultCheckTimeout,
		logger:  defLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewResolvedStore returns a store whose check already completed. A nil
// user makes it an anonymous session.
func NewResolvedStore(user *User) *Store {
	s := NewStore(nil)
	s.completed = true
	s.authenticated = user != nil
	s.user = user
	close(s.done)
	return s
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

func (s *Store) IsCheckingAuth() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.checking
}

func (s *Store) AuthCheckCompleted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.completed
}

func (s *Store) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Err returns the error of the last completed check, if any
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Snapshot reads every flag under a single lock
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Authenticated: s.authenticated,
		Checking:      s.checking,
		Completed:     s.completed,
		User:          s.user,
	}
}

// CheckAuth starts the check in the background unless one completed or is
// already running. The check is detached from ctx cancellation so a
// finished request does not abort it, but it keeps ctx values.
func (s *Store) CheckAuth(ctx context.Context) {
	s.mu.Lock()
	if s.completed || s.checking {
		s.mu.Unlock()
		return
	}
	s.checking = true
	done := s.done
	s.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}

	go s.run(context.WithoutCancel(ctx), done)
}

func (s *Store) run(ctx context.Context, done chan struct{}) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "guard.check_auth", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	started := time.Now()

	var user *User
	var err error
	if s.check != nil {
		user, err = s.check(ctx)
	}

	authenticated := err == nil && user != nil
	if !authenticated {
		user = nil
	}

	span.SetAttributes(attribute.Bool("guard.authenticated", authenticated))
	if authenticated {
		span.SetAttributes(attribute.String("guard.role", user.Role))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Debug("auth check failed", "error", err)
	}

	s.metrics.RecordCheck(time.Since(started), authenticated, err)

	s.mu.Lock()
	// Reset ran while we were checking, the result belongs to a stale session
	if s.done != done {
		s.mu.Unlock()
		close(done)
		return
	}
	s.checking = false
	s.completed = true
	s.authenticated = authenticated
	s.user = user
	s.err = err
	s.mu.Unlock()

	close(done)
}

// Wait blocks until the current check finishes or ctx is done. It returns
// immediately when no check is pending.
func (s *Store) Wait(ctx context.Context) error {
	s.mu.RLock()
	if !s.checking {
		s.mu.RUnlock()
		return nil
	}
	done := s.done
	s.mu.RUnlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reset forgets the session so the next CheckAuth runs a new check
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.authenticated = false
	s.checking = false
	s.completed = false
	s.user = nil
	s.err = nil
	s.done = make(chan struct{})
}
