package drive

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/teemow/drivepath/internal/instrumentation"
	"github.com/teemow/drivepath/internal/logging"
)

const (
	// RefreshThreshold is how long before expiry a credential is treated as stale.
	RefreshThreshold = 5 * time.Minute

	// defaultTokenLifetime is assumed when the token endpoint omits expires_in.
	defaultTokenLifetime = time.Hour
)

// CredentialState is the state of the bearer credential.
type CredentialState int

const (
	// StateStale means the expiry is unknown or within RefreshThreshold of now.
	StateStale CredentialState = iota

	// StateValid means the expiry is known and beyond RefreshThreshold.
	StateValid

	// StateUnrefreshable is terminal: a refresh token or client credentials are missing.
	StateUnrefreshable
)

func (s CredentialState) String() string {
	switch s {
	case StateValid:
		return "valid"
	case StateStale:
		return "stale"
	case StateUnrefreshable:
		return "unrefreshable"
	default:
		return "unknown"
	}
}

// TokenManagerConfig configures a TokenManager.
type TokenManagerConfig struct {
	// OAuth holds the client credentials and token endpoint
	OAuth *oauth2.Config

	// Token is the initial credential; any field may be empty
	Token *oauth2.Token

	// HTTPClient is used for the token endpoint (default: http.DefaultClient)
	HTTPClient *http.Client

	// OnRefresh is called with a copy of every newly obtained token
	OnRefresh func(*oauth2.Token)

	Logger  *slog.Logger
	Metrics *instrumentation.Metrics

	// Now overrides the clock in tests
	Now func() time.Time
}

// TokenManager owns the bearer credential and its refresh transitions.
// It implements oauth2.TokenSource without refreshing; refreshes happen
// only through EnsureFresh, Refresh and the client's unauthorized retry.
//
// Refreshes are serialized: concurrent callers that observe the same stale
// credential cause a single exchange. The exchange itself runs without mu,
// so State and Token never wait on the token endpoint.
type TokenManager struct {
	refreshMu sync.Mutex // serializes refreshes

	mu            sync.Mutex // guards the fields below
	token         oauth2.Token
	unrefreshable string // reason; non-empty once terminal
	generation    uint64 // incremented on every successful refresh

	oauth      *oauth2.Config
	httpClient *http.Client
	onRefresh  func(*oauth2.Token)
	logger     *slog.Logger
	metrics    *instrumentation.Metrics
	now        func() time.Time
}

// NewTokenManager creates a TokenManager from cfg.
func NewTokenManager(cfg TokenManagerConfig) *TokenManager {
	m := &TokenManager{
		oauth:      cfg.OAuth,
		httpClient: cfg.HTTPClient,
		onRefresh:  cfg.OnRefresh,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
		now:        cfg.Now,
	}
	if cfg.Token != nil {
		m.token = *cfg.Token
	}
	if m.oauth == nil {
		m.oauth = &oauth2.Config{}
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// State returns the current credential state.
func (m *TokenManager) State() CredentialState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateLocked()
}

func (m *TokenManager) stateLocked() CredentialState {
	if m.unrefreshable != "" {
		return StateUnrefreshable
	}
	if m.token.AccessToken == "" || m.token.Expiry.IsZero() {
		return StateStale
	}
	if m.token.Expiry.After(m.now().Add(RefreshThreshold)) {
		return StateValid
	}
	return StateStale
}

// CanRefresh reports whether a refresh token is available and the
// credential has not become unrefreshable.
func (m *TokenManager) CanRefresh() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unrefreshable == "" && m.token.RefreshToken != ""
}

// Token returns the current credential without refreshing it.
func (m *TokenManager) Token() (*oauth2.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token.AccessToken == "" {
		return nil, &AuthError{Reason: "no access token available"}
	}
	t := m.token
	return &t, nil
}

// EnsureFresh refreshes the credential if it is stale. It is a no-op for a
// valid credential and fails immediately once the credential is unrefreshable.
func (m *TokenManager) EnsureFresh(ctx context.Context) error {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	if m.State() == StateValid {
		return nil
	}
	return m.refresh(ctx, instrumentation.RefreshTriggerProactive)
}

// Refresh unconditionally exchanges the refresh token for a new credential.
func (m *TokenManager) Refresh(ctx context.Context) error {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()
	return m.refresh(ctx, instrumentation.RefreshTriggerUnauthorized)
}

// generationNow returns the refresh generation observed before a call.
func (m *TokenManager) generationNow() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation
}

// refreshAfterUnauthorized refreshes after a 401 unless another caller has
// already refreshed since generation gen was observed.
func (m *TokenManager) refreshAfterUnauthorized(ctx context.Context, gen uint64) error {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	m.mu.Lock()
	done := m.generation != gen && m.unrefreshable == ""
	m.mu.Unlock()
	if done {
		return nil
	}
	return m.refresh(ctx, instrumentation.RefreshTriggerUnauthorized)
}

// refresh performs one exchange. The caller holds refreshMu.
func (m *TokenManager) refresh(ctx context.Context, trigger string) error {
	m.mu.Lock()
	reason := m.unrefreshable
	terminal := reason != ""
	if !terminal {
		switch {
		case m.token.RefreshToken == "":
			m.unrefreshable = "no refresh token available"
		case m.oauth.ClientID == "" || m.oauth.ClientSecret == "":
			m.unrefreshable = "client credentials are not configured"
		}
		reason = m.unrefreshable
	}
	refreshToken := m.token.RefreshToken
	m.mu.Unlock()

	if reason != "" {
		if !terminal {
			m.logger.Warn("credential is unrefreshable",
				slog.String("reason", reason),
				slog.String("trigger", trigger))
		}
		m.metrics.RecordTokenRefresh(ctx, instrumentation.RefreshResultUnrefreshable, trigger)
		return &AuthError{Reason: reason, Err: ErrUnrefreshable}
	}

	if m.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
	}

	// A token without an access token is never valid, so the source always
	// performs the exchange.
	src := m.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	newToken, err := src.Token()
	if err != nil {
		m.logger.Warn("token refresh failed",
			slog.String("trigger", trigger),
			logging.Err(err))
		m.metrics.RecordTokenRefresh(ctx, instrumentation.RefreshResultFailure, trigger)
		return &AuthError{Reason: "token refresh failed", Err: err}
	}

	if newToken.RefreshToken == "" {
		newToken.RefreshToken = refreshToken
	}
	if newToken.Expiry.IsZero() {
		newToken.Expiry = m.now().Add(defaultTokenLifetime)
	}

	m.mu.Lock()
	m.token = *newToken
	m.generation++
	saved := m.token
	m.mu.Unlock()

	m.logger.Debug("token refreshed",
		slog.String("trigger", trigger),
		slog.String("access_token", logging.SanitizeToken(newToken.AccessToken)),
		slog.Time("expiry", newToken.Expiry))
	m.metrics.RecordTokenRefresh(ctx, instrumentation.RefreshResultSuccess, trigger)

	if m.onRefresh != nil {
		m.onRefresh(&saved)
	}

	return nil
}
