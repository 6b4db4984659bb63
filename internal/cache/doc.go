// Package cache stores fingerprint-keyed payloads with a time to live.
//
// Store is the persistence port (postgres and redis implementations live
// under internal/platform). Every implementation applies the expiry filter at
// read time, so an entry is never returned once its ExpiresAt has passed, and
// supports bulk deletion of expired entries.
package cache
