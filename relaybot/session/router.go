package session

import "sync"

// Router owns the two pieces of ephemeral relay state: the admin's current
// dialog target and the per-user free-text gates. It replaces the global
// mutable maps of the original design, and is mutex-guarded because the
// update loop and the ops HTTP server run on different goroutines. State is
// process-local: a restart drops every active dialog and gate.
type Router struct {
	mu     sync.Mutex
	target int64
	active bool
	gates  map[int64]bool
	gating bool
}

// NewRouter builds a Router. With gating disabled GateOpen always reports
// true; gate writes are still tracked so flipping the policy stays coherent.
func NewRouter(gating bool) *Router {
	return &Router{
		gates:  make(map[int64]bool),
		gating: gating,
	}
}

// StartDialog targets the admin at a user, overwriting any prior target.
// The caller validates that the user exists in the store.
func (r *Router) StartDialog(targetUserID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.target = targetUserID
	r.active = true
}

// EndDialog clears the route and reports whether a dialog was active, so the
// caller can distinguish "ended" from "nothing to end".
func (r *Router) EndDialog() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	was := r.active
	r.active = false
	r.target = 0
	return was
}

func (r *Router) CurrentTarget() (int64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return 0, false
	}
	return r.target, true
}

func (r *Router) SetUserGate(userID int64, allowed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gates[userID] = allowed
}

func (r *Router) GateOpen(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.gating {
		return true
	}
	return r.gates[userID]
}
