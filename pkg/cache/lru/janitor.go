package lru

import "time"

func (c *Cache[V]) startJanitor() {
	if c.interval <= 0 {
		return
	}
	ticker := time.NewTicker(c.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.deleteExpired()
			case <-c.stop:
				return
			}
		}
	}()
}

func (c *Cache[V]) deleteExpired() {
	c.mu.Lock()
	removed := c.purgeExpired(c.clock.Now())
	c.mu.Unlock()
	if removed > 0 {
		c.log.Debug().Int("removed", removed).Msg("purged expired entries")
	}
}
