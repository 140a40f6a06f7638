// Package cache provides a bounded, expiring in-process LRU map.
//
// Entries expire after the TTL given to New and the least recently used
// entry is dropped once the capacity is reached. All methods are safe for
// concurrent use.
//
//	c := cache.New[uuid.UUID, tier.Tier](10_000, 5*time.Minute)
//	c.Put(userID, tier.Premium)
//	t, ok := c.Get(userID)
package cache
