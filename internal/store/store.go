// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

// Package store persists per-user state as JSON documents in BadgerDB.
//
// Every value is addressed by (userID, key). The well-known keys below are
// the only ones the application writes; per-context result caches use
// ContextKey.
package store

import (
	"context"
	"errors"
	"strings"
)

// Well-known per-user keys.
const (
	KeyLikedEntities       = "liked-entities"
	KeyFullAPIResponses    = "full-api-responses"
	KeyAffinity            = "user-affinity"
	KeyProgress            = "user-progress"
	KeyConversationHistory = "conversation-history"
	KeyProfile             = "user-profile"

	contextKeyPrefix = "recs-"
)

var (
	// ErrNotFound is returned when no value exists for (userID, key).
	ErrNotFound = errors.New("store: key not found")

	// ErrCorrupt is returned when a stored value cannot be decoded into the
	// requested shape.
	ErrCorrupt = errors.New("store: value is corrupt")

	// ErrInvalidKey is returned for empty IDs or IDs containing the separator.
	ErrInvalidKey = errors.New("store: invalid user id or key")
)

// Store is the per-user key/value contract.
type Store interface {
	// Get decodes the value at (userID, key) into dst.
	Get(ctx context.Context, userID, key string, dst interface{}) error
	// Set encodes v and writes it at (userID, key).
	Set(ctx context.Context, userID, key string, v interface{}) error
	// Delete removes (userID, key). Deleting a missing key is not an error.
	Delete(ctx context.Context, userID, key string) error
	// Scan calls fn for every user holding key, in key order.
	Scan(ctx context.Context, key string, fn func(userID string, decode func(dst interface{}) error) error) error
	// Flush makes all previous writes durable.
	Flush(ctx context.Context) error
	Close() error
}

// ContextKey returns the key of the cached result list for a context name,
// for example ContextKey("nostalgic") == "recs-nostalgic".
func ContextKey(context string) string {
	return contextKeyPrefix + context
}

// IsContextKey reports whether key names a cached result list.
func IsContextKey(key string) bool {
	return strings.HasPrefix(key, contextKeyPrefix) && len(key) > len(contextKeyPrefix)
}

const (
	userPrefix = "user/"
	separator  = "/"
)

func encodeKey(userID, key string) ([]byte, error) {
	if userID == "" || key == "" || strings.Contains(userID, separator) || strings.Contains(key, separator) {
		return nil, ErrInvalidKey
	}
	return []byte(userPrefix + userID + separator + key), nil
}

func decodeKey(raw []byte) (userID, key string, ok bool) {
	s := string(raw)
	if !strings.HasPrefix(s, userPrefix) {
		return "", "", false
	}
	s = s[len(userPrefix):]
	i := strings.LastIndex(s, separator)
	if i <= 0 || i == len(s)-1 {
		return "", "", false
	}
	return s[:i], s[i+1:], true
}
