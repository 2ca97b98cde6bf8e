// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ErrStateInvalid is returned for unknown, expired or already used OAuth states.
var ErrStateInvalid = errors.New("cache: invalid oauth state")

// DefaultStateTTL is how long an OAuth state stays redeemable.
const DefaultStateTTL = 10 * time.Minute

const prefixState = "oauth_state:"

// taker is implemented by caches that can read and delete a key atomically.
type taker interface {
	Take(ctx context.Context, key string) ([]byte, error)
}

// OAuthStates issues single-use OAuth state values bound to a user.
type OAuthStates struct {
	cache Cacher
	ttl   time.Duration
}

// NewOAuthStates creates an OAuthStates. A non-positive ttl uses DefaultStateTTL.
func NewOAuthStates(c Cacher, ttl time.Duration) *OAuthStates {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &OAuthStates{cache: c, ttl: ttl}
}

// Put creates a state for userID.
func (s *OAuthStates) Put(ctx context.Context, userID int64) (string, error) {
	state := uuid.NewString()
	if err := s.cache.Set(ctx, prefixState+state, []byte(strconv.FormatInt(userID, 10)), s.ttl); err != nil {
		return "", fmt.Errorf("storing oauth state: %w", err)
	}
	return state, nil
}

// Take redeems a state and returns the user it was issued to. A state can be
// redeemed once.
func (s *OAuthStates) Take(ctx context.Context, state string) (int64, error) {
	if _, err := uuid.Parse(state); err != nil {
		return 0, ErrStateInvalid
	}
	key := prefixState + state

	var data []byte
	var err error
	if t, ok := s.cache.(taker); ok {
		data, err = t.Take(ctx, key)
	} else {
		data, err = s.cache.Get(ctx, key)
		if err == nil {
			err = s.cache.Delete(ctx, key)
		}
	}
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return 0, ErrStateInvalid
		}
		return 0, fmt.Errorf("loading oauth state: %w", err)
	}

	userID, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil || userID <= 0 {
		return 0, ErrStateInvalid
	}
	return userID, nil
}
