package factus

import (
	"context"
	"time"

	"github.com/factusapp/factusapp/internal/cache"
	ierr "github.com/factusapp/factusapp/internal/errors"
	"github.com/factusapp/factusapp/internal/logger"
	"github.com/factusapp/factusapp/internal/metrics"
	"golang.org/x/sync/singleflight"
)

const (
	// expirySafetyMargin is subtracted from the provider's expires_in
	expirySafetyMargin = 60 * time.Second
	// refreshWindow is the remaining validity under which a token is renewed
	refreshWindow = 5 * time.Minute
)

// Token is a cached access token
type Token struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

// validFor reports whether the token stays valid for at least d after now
func (t Token) validFor(now time.Time, d time.Duration) bool {
	return t.AccessToken != "" && t.ExpiresAt.After(now.Add(d))
}

// TokenFetcher performs the network exchange for a new token
type TokenFetcher func(ctx context.Context) (*TokenResponse, error)

// Session caches the provider access token and collapses concurrent
// refreshes into a single round trip
type Session struct {
	cache   cache.Cache
	key     string
	fetch   TokenFetcher
	group   singleflight.Group
	logger  *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewSession creates a session stored in c under a key derived from the
// credentials identity, so different accounts never share a token
func NewSession(c cache.Cache, identity string, fetch TokenFetcher, log *logger.Logger, m *metrics.Metrics) *Session {
	return &Session{
		cache:   c,
		key:     cache.GenerateKey(cache.PrefixFiscalSession, identity),
		fetch:   fetch,
		logger:  log,
		metrics: m,
		now:     time.Now,
	}
}

// AccessToken returns a token with more than five minutes of validity left,
// fetching a new one when needed
func (s *Session) AccessToken(ctx context.Context) (string, error) {
	if tok, ok := s.cached(ctx); ok {
		return tok.AccessToken, nil
	}

	ch := s.group.DoChan(s.key, func() (interface{}, error) {
		// another flight may have stored a fresh token since the check above
		if tok, ok := s.cached(ctx); ok {
			return tok, nil
		}
		return s.refresh(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return "", ierr.WithError(ctx.Err()).
			WithHint("Timed out waiting for the fiscal provider session").
			Mark(ierr.ErrExternalService)
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(Token).AccessToken, nil
	}
}

// Invalidate drops the cached token so the next call authenticates again
func (s *Session) Invalidate(ctx context.Context) {
	s.cache.Delete(ctx, s.key)
}

func (s *Session) cached(ctx context.Context) (Token, bool) {
	v, ok := s.cache.Get(ctx, s.key)
	if !ok {
		return Token{}, false
	}
	tok, ok := v.(Token)
	if !ok || !tok.validFor(s.now(), refreshWindow) {
		return Token{}, false
	}
	return tok, true
}

func (s *Session) refresh(ctx context.Context) (Token, error) {
	s.metrics.IncTokenRefresh()

	resp, err := s.fetch(ctx)
	if err != nil {
		s.logger.Errorw("failed to obtain fiscal provider token", "error", err)
		return Token{}, err
	}
	if resp.AccessToken == "" {
		return Token{}, ierr.NewError("empty access token").
			WithHint("The fiscal provider did not return an access token").
			Mark(ierr.ErrExternalService)
	}

	now := s.now()
	tok := Token{
		AccessToken: resp.AccessToken,
		TokenType:   resp.TokenType,
		ExpiresAt:   now.Add(time.Duration(resp.ExpiresIn)*time.Second - expirySafetyMargin),
	}

	if ttl := tok.ExpiresAt.Sub(now); ttl > 0 {
		s.cache.Set(ctx, s.key, tok, ttl)
	}

	s.logger.Infow("fiscal provider token obtained", "expires_at", tok.ExpiresAt)
	return tok, nil
}
