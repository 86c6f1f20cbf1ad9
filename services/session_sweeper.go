package services

import (
	"context"
	"time"

	"github.com/marior032001/jwt-pizza-service/utils"
)

// SessionSweeper periodically drops sessions older than the token lifetime.
// Their tokens are already rejected as expired, so only the rows go.
type SessionSweeper struct {
	Auth     *AuthService
	TTL      time.Duration
	Interval time.Duration
	StopChan chan struct{}

	now func() time.Time
}

func NewSessionSweeper(auth *AuthService, ttl, interval time.Duration) *SessionSweeper {
	return &SessionSweeper{
		Auth:     auth,
		TTL:      ttl,
		Interval: interval,
		StopChan: make(chan struct{}),
		now:      time.Now,
	}
}

func (ss *SessionSweeper) Start() {
	go func() {
		ticker := time.NewTicker(ss.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ss.Sweep(context.Background())
			case <-ss.StopChan:
				return
			}
		}
	}()
}

func (ss *SessionSweeper) Stop() {
	close(ss.StopChan)
}

// Sweep runs one purge and returns the number of removed sessions.
func (ss *SessionSweeper) Sweep(ctx context.Context) int64 {
	timeout := ss.Interval
	if timeout <= 0 {
		timeout = time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	removed, err := ss.Auth.PurgeSessions(ctx, ss.now().Add(-ss.TTL))
	if err != nil {
		utils.ErrorLogger.WithError(err).Error("session sweep failed")
		return 0
	}
	if removed > 0 {
		utils.InfoLogger.WithField("removed", removed).Info("expired sessions purged")
	}
	return removed
}
