package synth

import "sync"

// reentrancyGuard scopes a mutual-exclusion lock to a whole engine call. A
// call arriving while another is still executing, including a nested callback
// from a token ledger, is rejected with ErrReentrantCall instead of blocking;
// the caller resubmits. The returned release function must run on every exit
// path.
type reentrancyGuard struct {
	mu sync.Mutex
}

func (g *reentrancyGuard) enter() (release func(), err error) {
	if !g.mu.TryLock() {
		return nil, ErrReentrantCall
	}
	return g.mu.Unlock, nil
}
