package sequencer

import (
	"sync"
	"time"

	"github.com/godlykids/journey/internal/domain"
)

// pendingAdvance is one scheduled auto-advance for a keyed flow.
type pendingAdvance struct {
	tag   domain.StepTag
	timer *time.Timer
}

// TimerRegistry owns the auto-advance timers for active flows, keyed by
// flow owner (user ID). Scheduling for a key cancels any previous timer for
// that key, so a step change can never leave an orphan timer behind or fire
// an advance for a step that is no longer current.
type TimerRegistry struct {
	mu      sync.Mutex
	pending map[string]*pendingAdvance
}

// NewTimerRegistry creates an empty registry.
func NewTimerRegistry() *TimerRegistry {
	return &TimerRegistry{pending: make(map[string]*pendingAdvance)}
}

// Schedule arms an auto-advance for the given key and step. When the delay
// elapses and the registration is still current, fire is invoked with the
// step tag the timer was armed for. Any previously scheduled timer for the
// key is cancelled first.
func (r *TimerRegistry) Schedule(key string, tag domain.StepTag, delay time.Duration, fire func(tag domain.StepTag)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.pending[key]; ok {
		prev.timer.Stop()
		delete(r.pending, key)
	}

	p := &pendingAdvance{tag: tag}
	p.timer = time.AfterFunc(delay, func() {
		if !r.consume(key, p) {
			return
		}
		fire(tag)
	})
	r.pending[key] = p
}

// consume removes the registration if it is still the current one for the
// key. Returns false when the timer was superseded or cancelled after
// firing had already been committed.
func (r *TimerRegistry) consume(key string, p *pendingAdvance) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.pending[key]
	if !ok || current != p {
		return false
	}
	delete(r.pending, key)
	return true
}

// Cancel stops and forgets any scheduled timer for the key.
func (r *TimerRegistry) Cancel(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.pending[key]; ok {
		p.timer.Stop()
		delete(r.pending, key)
	}
}

// Pending returns the step tag the key's timer is armed for, if any.
func (r *TimerRegistry) Pending(key string) (domain.StepTag, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.pending[key]; ok {
		return p.tag, true
	}
	return domain.CursorIdle, false
}

// CancelAll stops every scheduled timer. Used on shutdown.
func (r *TimerRegistry) CancelAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, p := range r.pending {
		p.timer.Stop()
		delete(r.pending, key)
	}
}
