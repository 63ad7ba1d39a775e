package adminauth

import (
	"sync"
	"time"
)

const (
	// EscalationReasonFailedLogins is an exported constant or variable used by the password-change engine.
	EscalationReasonFailedLogins = "repeated failed logins"
	// EscalationReasonRapidChanges is an exported constant or variable used by the password-change engine.
	EscalationReasonRapidChanges = "rapid password changes"
)

// Escalation is a derived suspicious-activity signal produced by the
// [Correlator].
type Escalation struct {
	ActorID string
	Reason  string
}

type actorWindow struct {
	events []SecurityEvent
}

// Correlator keeps a rolling per-actor window of recent security events and
// derives suspicious-activity escalations from it. Observe never re-ingests
// the escalations it produces, so escalation cannot feed itself.
type Correlator struct {
	cfg CorrelatorConfig

	mu     sync.Mutex
	actors map[string]*actorWindow
}

// NewCorrelator describes the newcorrelator operation and its observable behavior.
//
// NewCorrelator may return an error when input validation, dependency calls, or security checks fail.
// NewCorrelator does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewCorrelator(cfg CorrelatorConfig) *Correlator {
	if !cfg.Enabled {
		return nil
	}
	return &Correlator{
		cfg:    cfg,
		actors: make(map[string]*actorWindow),
	}
}

// Observe appends one event to the actor's window, prunes entries older than
// the window, and reports any escalations the new state triggers. Derived
// suspicious-activity events must not be passed back in.
func (c *Correlator) Observe(event SecurityEvent) []Escalation {
	if c == nil || event.ActorID == "" || event.Action == ActionSuspiciousActivity {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	window, ok := c.actors[event.ActorID]
	if !ok {
		window = &actorWindow{}
		c.actors[event.ActorID] = window
	}

	cutoff := event.Timestamp.Add(-c.cfg.Window)
	kept := window.events[:0]
	for _, past := range window.events {
		if past.Timestamp.After(cutoff) {
			kept = append(kept, past)
		}
	}
	window.events = append(kept, event)

	var failedLogins, passwordChanges int
	for _, e := range window.events {
		switch {
		case e.Action == ActionLogin && !e.Success:
			failedLogins++
		case e.Action == ActionPasswordChange && e.Success:
			passwordChanges++
		}
	}

	var escalations []Escalation
	// Fire exactly when a threshold is crossed, not on every event above it,
	// so one burst yields one escalation per reason.
	if event.Action == ActionLogin && !event.Success && failedLogins == c.cfg.FailedLoginThreshold {
		escalations = append(escalations, Escalation{
			ActorID: event.ActorID,
			Reason:  EscalationReasonFailedLogins,
		})
	}
	if event.Action == ActionPasswordChange && event.Success && passwordChanges == c.cfg.PasswordChangeThreshold {
		escalations = append(escalations, Escalation{
			ActorID: event.ActorID,
			Reason:  EscalationReasonRapidChanges,
		})
	}

	return escalations
}

// Prune drops all window entries older than the rolling window relative to
// now. The sweeper calls this so idle actors do not pin memory.
func (c *Correlator) Prune(now time.Time) int {
	if c == nil {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := now.Add(-c.cfg.Window)
	pruned := 0
	for actorID, window := range c.actors {
		kept := window.events[:0]
		for _, past := range window.events {
			if past.Timestamp.After(cutoff) {
				kept = append(kept, past)
			}
		}
		pruned += len(window.events) - len(kept)
		window.events = kept
		if len(window.events) == 0 {
			delete(c.actors, actorID)
		}
	}
	return pruned
}
