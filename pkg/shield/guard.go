// Package shield is the psychological safety layer. It abstracts disturbing
// case material into analyst-safe summaries and enforces exposure limits so
// reviewers never exceed safe session budgets.
package shield

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/CyberSecurityUP/GroomSafe/pkg/model"
)

// Default exposure limits per analyst session.
const (
	DefaultMaxCasesPerSession    = 20
	DefaultMaxHighRiskPerSession = 5
	DefaultMaxSessionMinutes     = 120
	DefaultMandatoryBreakMinutes = 15
)

// AnalystSession tracks one analyst's exposure within a review session.
type AnalystSession struct {
	AnalystID            string    `json:"analyst_id"`
	SessionStart         time.Time `json:"session_start"`
	CasesReviewed        int       `json:"cases_reviewed"`
	HighRiskExposures    int       `json:"high_risk_exposures"`
	TotalExposureMinutes float64   `json:"total_exposure_minutes"`
}

// SessionStore persists analyst exposure sessions. Implementations must be
// safe for concurrent use. Get returns nil, nil when no session exists.
type SessionStore interface {
	Get(ctx context.Context, analystID string) (*AnalystSession, error)
	Save(ctx context.Context, session *AnalystSession) error
	Delete(ctx context.Context, analystID string) error
}

// SafetyStatus is the outcome of an exposure check.
type SafetyStatus struct {
	SafeToProceed          bool    `json:"safe_to_proceed"`
	Reason                 string  `json:"reason,omitempty"`
	Recommendation         string  `json:"recommendation,omitempty"`
	CasesReviewed          int     `json:"cases_reviewed"`
	HighRiskExposures      int     `json:"high_risk_exposures"`
	SessionDurationMinutes float64 `json:"session_duration_minutes"`
	RemainingCases         int     `json:"remaining_cases"`
}

// GuardConfig holds the exposure limits enforced by the guard.
type GuardConfig struct {
	MaxCasesPerSession    int
	MaxHighRiskPerSession int
	MaxSessionMinutes     int
	MandatoryBreakMinutes int
}

// DefaultGuardConfig returns the standard exposure limits.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		MaxCasesPerSession:    DefaultMaxCasesPerSession,
		MaxHighRiskPerSession: DefaultMaxHighRiskPerSession,
		MaxSessionMinutes:     DefaultMaxSessionMinutes,
		MandatoryBreakMinutes: DefaultMandatoryBreakMinutes,
	}
}

// ExposureGuard enforces analyst exposure limits against a session store.
// All store access for one analyst happens under that analyst's lock, so
// overlapping calls cannot lose counter updates.
type ExposureGuard struct {
	store SessionStore
	cfg   GuardConfig
	now   func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// GuardOption is a functional option for configuring ExposureGuard.
type GuardOption func(*ExposureGuard)

// WithGuardConfig overrides the default exposure limits.
func WithGuardConfig(cfg GuardConfig) GuardOption {
	return func(g *ExposureGuard) {
		g.cfg = cfg
	}
}

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) GuardOption {
	return func(g *ExposureGuard) {
		g.now = now
	}
}

// NewExposureGuard creates a guard backed by the given store.
func NewExposureGuard(store SessionStore, opts ...GuardOption) *ExposureGuard {
	g := &ExposureGuard{
		store: store,
		cfg:   DefaultGuardConfig(),
		now:   time.Now,
		locks: make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// analystLock returns the mutex serializing store access for one analyst.
// Locks are never removed; the map grows with the active analyst set.
func (g *ExposureGuard) analystLock(analystID string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()

	l, ok := g.locks[analystID]
	if !ok {
		l = &sync.Mutex{}
		g.locks[analystID] = l
	}
	return l
}

// session loads the analyst's session, creating a fresh one if none exists.
// Callers must hold the analyst's lock.
func (g *ExposureGuard) session(ctx context.Context, analystID string) (*AnalystSession, error) {
	session, err := g.store.Get(ctx, analystID)
	if err != nil {
		return nil, fmt.Errorf("load analyst session: %w", err)
	}
	if session == nil {
		session = &AnalystSession{
			AnalystID:    analystID,
			SessionStart: g.now().UTC(),
		}
		if err := g.store.Save(ctx, session); err != nil {
			return nil, fmt.Errorf("init analyst session: %w", err)
		}
	}
	return session, nil
}

// CheckSafety reports whether the analyst may review a case at the given
// risk level. Limits are checked in order: session duration, total cases,
// then high-risk exposures (only when the case itself is high risk).
func (g *ExposureGuard) CheckSafety(ctx context.Context, analystID string, level model.RiskLevel) (*SafetyStatus, error) {
	lock := g.analystLock(analystID)
	lock.Lock()
	defer lock.Unlock()

	session, err := g.session(ctx, analystID)
	if err != nil {
		return nil, err
	}

	duration := g.now().UTC().Sub(session.SessionStart).Minutes()
	breakRec := fmt.Sprintf("Mandatory %d-minute break required", g.cfg.MandatoryBreakMinutes)

	status := &SafetyStatus{
		CasesReviewed:          session.CasesReviewed,
		HighRiskExposures:      session.HighRiskExposures,
		SessionDurationMinutes: duration,
	}

	if duration > float64(g.cfg.MaxSessionMinutes) {
		status.Reason = "Maximum session duration exceeded"
		status.Recommendation = breakRec
		return status, nil
	}

	if session.CasesReviewed >= g.cfg.MaxCasesPerSession {
		status.Reason = "Maximum cases per session exceeded"
		status.Recommendation = breakRec
		return status, nil
	}

	if level.IsHighRisk() && session.HighRiskExposures >= g.cfg.MaxHighRiskPerSession {
		status.Reason = "Maximum high-risk exposures exceeded"
		status.Recommendation = breakRec
		return status, nil
	}

	status.SafeToProceed = true
	status.RemainingCases = g.cfg.MaxCasesPerSession - session.CasesReviewed
	return status, nil
}

// LogExposure records one reviewed case against the analyst's counters.
func (g *ExposureGuard) LogExposure(ctx context.Context, analystID string, level model.RiskLevel, exposureMinutes float64) error {
	lock := g.analystLock(analystID)
	lock.Lock()
	defer lock.Unlock()

	session, err := g.session(ctx, analystID)
	if err != nil {
		return err
	}

	session.CasesReviewed++
	session.TotalExposureMinutes += exposureMinutes
	if level.IsHighRisk() {
		session.HighRiskExposures++
	}

	if err := g.store.Save(ctx, session); err != nil {
		return fmt.Errorf("save analyst session: %w", err)
	}
	return nil
}

// ResetSession clears the analyst's counters after a break. The next check
// starts a fresh session.
func (g *ExposureGuard) ResetSession(ctx context.Context, analystID string) error {
	lock := g.analystLock(analystID)
	lock.Lock()
	defer lock.Unlock()

	if err := g.store.Delete(ctx, analystID); err != nil {
		return fmt.Errorf("reset analyst session: %w", err)
	}
	return nil
}
