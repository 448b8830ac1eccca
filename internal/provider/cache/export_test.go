package cache

import "time"

// SetNow replaces the clock used for expiry.
func (c *Provider) SetNow(now func() time.Time) { c.now = now }
