package guard

import (
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
)

// EnvPrefix is the prefix OptionsFromEnv reads variables with
const EnvPrefix = "GUARD_"

var (
	_ Config = (*Options)(nil)

	absolutePath = regexp.MustCompile(`^/`)
	lookupSource = regexp.MustCompile(`^(cookie|header|query):[^,:]+(,(cookie|header|query):[^,:]+)*$`)
)

// Options is the default Config implementation
type Options struct {
	ContextKey           string        `env:"CONTEXT_KEY" envDefault:"user" koanf:"context_key"`
	TokenLookup          string        `env:"TOKEN_LOOKUP" envDefault:"cookie:session,header:Authorization" koanf:"token_lookup"`
	AuthScheme           string        `env:"AUTH_SCHEME" envDefault:"Bearer" koanf:"auth_scheme"`
	SessionCookie        string        `env:"SESSION_COOKIE" envDefault:"session" koanf:"session_cookie"`
	RejectedRouteKey     string        `env:"REJECTED_ROUTE_KEY" envDefault:"rejected_route" koanf:"rejected_route_key"`
	RejectedRouteDefault string        `env:"REJECTED_ROUTE_DEFAULT" envDefault:"/" koanf:"rejected_route_default"`
	LoadingView          string        `env:"LOADING_VIEW" envDefault:"guard/loading" koanf:"loading_view"`
	CheckTimeout         time.Duration `env:"CHECK_TIMEOUT" envDefault:"2s" koanf:"check_timeout"`
	RefreshInterval      int           `env:"REFRESH_INTERVAL" envDefault:"1" koanf:"refresh_interval"`
	SessionCacheTTL      time.Duration `env:"SESSION_CACHE_TTL" envDefault:"30s" koanf:"session_cache_ttl"`
	SecureCookies        bool          `env:"SECURE_COOKIES" envDefault:"true" koanf:"secure_cookies"`
}

// DefaultOptions returns the options used when nothing is configured
func DefaultOptions() *Options {
	return &Options{
		ContextKey:           "user",
		TokenLookup:          "cookie:session,header:Authorization",
		AuthScheme:           "Bearer",
		SessionCookie:        "session",
		RejectedRouteKey:     "rejected_route",
		RejectedRouteDefault: "/",
		LoadingView:          "guard/loading",
		CheckTimeout:         2 * time.Second,
		RefreshInterval:      1,
		SessionCacheTTL:      30 * time.Second,
		SecureCookies:        true,
	}
}

// OptionsFromEnv reads options from GUARD_ prefixed environment variables
func OptionsFromEnv() (*Options, error) {
	opts := &Options{}
	if err := env.ParseWithOptions(opts, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "failed to read guard environment").
			WithTextCode(TextCodeInvalidConfig)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

// Validate checks the options are usable
func (o Options) Validate() error {
	err := validation.ValidateStruct(&o,
		validation.Field(&o.ContextKey, validation.Required),
		validation.Field(&o.TokenLookup, validation.Required, validation.Match(lookupSource)),
		validation.Field(&o.SessionCookie, validation.Required),
		validation.Field(&o.RejectedRouteKey, validation.Required),
		validation.Field(&o.RejectedRouteDefault, validation.Required, validation.Match(absolutePath)),
		validation.Field(&o.LoadingView, validation.Required),
		validation.Field(&o.CheckTimeout, validation.Min(time.Duration(0))),
		validation.Field(&o.RefreshInterval, validation.Required, validation.Min(1)),
		validation.Field(&o.SessionCacheTTL, validation.Min(time.Duration(0))),
	)
	if err != nil {
		return errors.Wrap(err, ErrInvalidConfig.Category, ErrInvalidConfig.Message).
			WithTextCode(ErrInvalidConfig.TextCode).
			WithCode(ErrInvalidConfig.Code)
	}
	return nil
}

func (o Options) GetContextKey() string {
	return o.ContextKey
}

func (o Options) GetTokenLookup() string {
	return strings.ReplaceAll(o.TokenLookup, " ", "")
}

func (o Options) GetAuthScheme() string {
	return o.AuthScheme
}

func (o Options) GetSessionCookie() string {
	return o.SessionCookie
}

func (o Options) GetRejectedRouteKey() string {
	return o.RejectedRouteKey
}

func (o Options) GetRejectedRouteDefault() string {
	return o.RejectedRouteDefault
}

func (o Options) GetLoadingView() string {
	return o.LoadingView
}

func (o Options) GetCheckTimeout() time.Duration {
	return o.CheckTimeout
}

func (o Options) GetRefreshInterval() int {
	return o.RefreshInterval
}

func (o Options) GetSessionCacheTTL() time.Duration {
	return o.SessionCacheTTL
}

func (o Options) GetSecureCookies() bool {
	return o.SecureCookies
}
