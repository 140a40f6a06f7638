// Package redis opens go-redis clients with startup retries. flashly uses
// redis only for the display tier cache, so a failed connection is reported
// to the caller which may continue without the cache.
package redis
