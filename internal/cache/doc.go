// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

/*
Package cache provides a thread-safe, generic in-memory cache with TTL
expiration.

It fronts the taste-graph client so that identical insights and search
requests issued within a short window (for example a query followed by a
cache-miss reload of the same context) do not hit the upstream twice.

# Usage

	c := cache.New[[]recommend.RawEntity](2 * time.Minute)
	defer c.Close()

	key := cache.GenerateKey("insights", params)
	if v, ok := c.Get(key); ok {
	    return v, nil
	}
	v, err := fetch()
	if err == nil {
	    c.Set(key, v)
	}

# Expiration

Entries expire lazily on Get and are swept every five minutes by a
background goroutine that stops on Close.

# Statistics

GetStats and HitRate expose hit, miss and eviction counters for the health
endpoint.
*/
package cache
