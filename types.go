package guard

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// User is the session record guards read. Role is the raw role string,
// empty when the user has none.
type User struct {
	ID       string         `json:"id"`
	Username string         `json:"username,omitempty"`
	Role     string         `json:"role,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// RoleTag parses the raw role into the closed Role set
func (u *User) RoleTag() Role {
	if u == nil {
		return RoleUnknown
	}
	role, _ := ParseRole(u.Role)
	return role
}

// UUID parses the user ID as a UUID
func (u *User) UUID() (uuid.UUID, error) {
	if u == nil {
		return uuid.Nil, ErrUnableToParseUser
	}
	return uuid.Parse(u.ID)
}

// AuthState is the external auth provider guards consume. Guards only read
// it and call CheckAuth, which must be idempotent.
type AuthState interface {
	IsAuthenticated() bool
	IsCheckingAuth() bool
	AuthCheckCompleted() bool
	User() *User
	CheckAuth(ctx context.Context)
}

// Snapshotter is implemented by providers that can read all flags atomically
type Snapshotter interface {
	Snapshot() Snapshot
}

// Waiter is implemented by providers that can block until a pending
// check finishes.
type Waiter interface {
	Wait(ctx context.Context) error
}

// SessionResolver turns a raw credential into the user it belongs to
type SessionResolver interface {
	Resolve(ctx context.Context, credential string) (*User, error)
}

// SessionResolverFunc adapts a function into a SessionResolver.
type SessionResolverFunc func(ctx context.Context, credential string) (*User, error)

// Resolve satisfies the SessionResolver interface.
func (f SessionResolverFunc) Resolve(ctx context.Context, credential string) (*User, error) {
	if f == nil {
		return nil, ErrResolverRequired
	}
	return f(ctx, credential)
}

// Snapshot is a point in time read of an AuthState
type Snapshot struct {
	Authenticated bool
	Checking      bool
	Completed     bool
	User          *User
}

// Role returns the parsed role of the snapshot user
func (s Snapshot) Role() Role {
	return s.User.RoleTag()
}

// SnapshotOf reads the state, atomically when the provider supports it
func SnapshotOf(state AuthState) Snapshot {
	if state == nil {
		return Snapshot{}
	}
	if s, ok := state.(Snapshotter); ok {
		return s.Snapshot()
	}
	return Snapshot{
		Authenticated: state.IsAuthenticated(),
		Checking:      state.IsCheckingAuth(),
		Completed:     state.AuthCheckCompleted(),
		User:          state.User(),
	}
}

// Config holds guard options
type Config interface {
	GetContextKey() string
	GetTokenLookup() string
	GetAuthScheme() string
	GetSessionCookie() string
	GetRejectedRouteKey() string
	GetRejectedRouteDefault() string
	GetLoadingView() string
	GetCheckTimeout() time.Duration
	GetRefreshInterval() int
	GetSessionCacheTTL() time.Duration
	GetSecureCookies() bool
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Print("[ERR] GUARD " + formatLog(format, args...))
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Print("[INF] GUARD " + formatLog(format, args...))
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Print("[DBG] GUARD " + formatLog(format, args...))
}

// formatLog supports both printf verbs and trailing key/value pairs
func formatLog(format string, args ...any) string {
	var msg string
	if strings.Contains(format, "%") {
		msg = fmt.Sprintf(format, args...)
	} else {
		var b strings.Builder
		b.WriteString(format)
		for i := 0; i < len(args); i += 2 {
			if i+1 < len(args) {
				fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
			} else {
				fmt.Fprintf(&b, " %v", args[i])
			}
		}
		msg = b.String()
	}
	return newline(msg)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

type slogLogger struct {
	logger *slog.Logger
}

// SlogLogger adapts a slog.Logger. Messages are expected to be followed
// by key/value pairs.
func SlogLogger(logger *slog.Logger) Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return slogLogger{logger: logger}
}

func (s slogLogger) Debug(format string, args ...any) {
	s.logger.Debug(format, args...)
}

func (s slogLogger) Info(format string, args ...any) {
	s.logger.Info(format, args...)
}

func (s slogLogger) Error(format string, args ...any) {
	s.logger.Error(format, args...)
}
