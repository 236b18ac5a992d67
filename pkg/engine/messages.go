package engine

import "time"

// Infos returns the transient informational messages currently visible.
// Messages expire together a fixed delay after the last one was posted.
func (e *Engine) Infos() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.infos...)
}

func (e *Engine) addInfos(msgs []string) {
	e.mu.Lock()
	e.addInfosLocked(msgs)
	e.mu.Unlock()
}

// addInfosLocked appends messages and rearms the expiry timer. At most one
// timer is live at a time: any pending timer is stopped before the new one
// is scheduled.
func (e *Engine) addInfosLocked(msgs []string) {
	if len(msgs) == 0 {
		return
	}
	e.infos = append(e.infos, msgs...)

	if e.infoTimer != nil {
		e.infoTimer.Stop()
	}
	e.infoTimer = time.AfterFunc(e.infoTTL, func() {
		e.mu.Lock()
		e.infos = nil
		e.infoTimer = nil
		e.mu.Unlock()
	})
}
