package ratelimit

import "time"

// Sweep prunes every client's log and forgets clients left with none. It
// returns the number of clients removed.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	removed := 0
	for id := range l.logs {
		if len(l.prune(id, now)) == 0 {
			delete(l.logs, id)
			removed++
		}
	}
	return removed
}

func (l *Limiter) startSweeper() {
	if l.interval <= 0 {
		return
	}
	ticker := time.NewTicker(l.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := l.Sweep(); n > 0 {
					l.log.Debug().Int("removed", n).Msg("swept idle clients")
				}
			case <-l.stop:
				return
			}
		}
	}()
}
