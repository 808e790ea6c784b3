package factus

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/factusapp/factusapp/internal/cache"
	ierr "github.com/factusapp/factusapp/internal/errors"
	"github.com/factusapp/factusapp/internal/logger"
	"github.com/factusapp/factusapp/internal/metrics"
	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type SessionSuite struct {
	suite.Suite
	calls atomic.Int32
	clock time.Time
}

func TestSession(t *testing.T) {
	suite.Run(t, new(SessionSuite))
}

func (s *SessionSuite) SetupTest() {
	s.calls.Store(0)
	s.clock = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
}

func (s *SessionSuite) newSession(fetch TokenFetcher) *Session {
	sess := NewSession(cache.NewInMemoryCache(), "client:user@example.com", fetch, logger.NewNoopLogger(), metrics.NewNoop())
	sess.now = func() time.Time { return s.clock }
	return sess
}

func (s *SessionSuite) countingFetcher(expiresIn int64) TokenFetcher {
	return func(ctx context.Context) (*TokenResponse, error) {
		n := s.calls.Add(1)
		return &TokenResponse{
			AccessToken: "token-" + itoa(int64(n)),
			TokenType:   "Bearer",
			ExpiresIn:   expiresIn,
		}, nil
	}
}

func (s *SessionSuite) TestConcurrentCallersShareOneRefresh() {
	release := make(chan struct{})
	fetch := func(ctx context.Context) (*TokenResponse, error) {
		s.calls.Add(1)
		<-release
		return &TokenResponse{AccessToken: "shared", ExpiresIn: 3600}, nil
	}
	sess := s.newSession(fetch)

	const callers = 25
	var (
		wg      conc.WaitGroup
		mu      sync.Mutex
		tokens  []string
		started sync.WaitGroup
	)
	started.Add(callers)
	for i := 0; i < callers; i++ {
		wg.Go(func() {
			started.Done()
			tok, err := sess.AccessToken(context.Background())
			s.NoError(err)
			mu.Lock()
			tokens = append(tokens, tok)
			mu.Unlock()
		})
	}
	started.Wait()
	// let the callers reach the flight before it completes
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	s.Equal(int32(1), s.calls.Load())
	s.Len(tokens, callers)
	for _, tok := range tokens {
		s.Equal("shared", tok)
	}
}

func (s *SessionSuite) TestCachedTokenIsReused() {
	sess := s.newSession(s.countingFetcher(3600))

	first, err := sess.AccessToken(context.Background())
	s.Require().NoError(err)
	second, err := sess.AccessToken(context.Background())
	s.Require().NoError(err)

	s.Equal(first, second)
	s.Equal(int32(1), s.calls.Load())
}

func (s *SessionSuite) TestRefreshesInsideFiveMinuteWindow() {
	// 600s minus the 60s margin leaves 540s of validity
	sess := s.newSession(s.countingFetcher(600))

	first, err := sess.AccessToken(context.Background())
	s.Require().NoError(err)

	s.clock = s.clock.Add(230 * time.Second)
	again, err := sess.AccessToken(context.Background())
	s.Require().NoError(err)
	s.Equal(first, again, "310s left is outside the refresh window")

	s.clock = s.clock.Add(20 * time.Second)
	renewed, err := sess.AccessToken(context.Background())
	s.Require().NoError(err)
	s.NotEqual(first, renewed)
	s.Equal(int32(2), s.calls.Load())
}

func (s *SessionSuite) TestShortLivedTokenIsNeverReused() {
	sess := s.newSession(s.countingFetcher(120))

	_, err := sess.AccessToken(context.Background())
	s.Require().NoError(err)
	_, err = sess.AccessToken(context.Background())
	s.Require().NoError(err)

	s.Equal(int32(2), s.calls.Load())
}

func (s *SessionSuite) TestInvalidateForcesRefresh() {
	sess := s.newSession(s.countingFetcher(3600))

	first, err := sess.AccessToken(context.Background())
	s.Require().NoError(err)
	sess.Invalidate(context.Background())
	second, err := sess.AccessToken(context.Background())
	s.Require().NoError(err)

	s.NotEqual(first, second)
}

func (s *SessionSuite) TestFetchErrorIsReturned() {
	boom := ierr.NewError("unauthorized").Mark(ierr.ErrExternalService)
	sess := s.newSession(func(ctx context.Context) (*TokenResponse, error) {
		return nil, boom
	})

	_, err := sess.AccessToken(context.Background())
	s.Error(err)
	s.True(ierr.IsExternalService(err))
}

func (s *SessionSuite) TestEmptyTokenIsRejected() {
	sess := s.newSession(func(ctx context.Context) (*TokenResponse, error) {
		return &TokenResponse{ExpiresIn: 3600}, nil
	})

	_, err := sess.AccessToken(context.Background())
	s.True(ierr.IsExternalService(err))
}

func (s *SessionSuite) TestCancelledWaiterReturnsWithoutBlocking() {
	release := make(chan struct{})
	defer close(release)
	sess := s.newSession(func(ctx context.Context) (*TokenResponse, error) {
		<-release
		return &TokenResponse{AccessToken: "late", ExpiresIn: 3600}, nil
	})
	fixed := s.clock
	sess.now = func() time.Time { return fixed }

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := sess.AccessToken(ctx)
	s.Error(err)
	s.True(ierr.IsExternalService(err))
	s.True(errors.Is(err, context.DeadlineExceeded))
}

func TestTokenValidFor(t *testing.T) {
	now := time.Now()
	tok := Token{AccessToken: "x", ExpiresAt: now.Add(10 * time.Minute)}

	assert.True(t, tok.validFor(now, refreshWindow))
	assert.False(t, tok.validFor(now.Add(6*time.Minute), refreshWindow))
	require.False(t, Token{ExpiresAt: now.Add(time.Hour)}.validFor(now, refreshWindow))
}
