// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

package crm

import (
	"context"
	"sync"

	"golang.org/x/oauth2"
)

// persistingTokenSource writes every token the refresh flow produces back to
// the credential store, so the rotated token survives the request.
type persistingTokenSource struct {
	client *Client
	ctx    context.Context
	userID int64
	base   oauth2.TokenSource

	mu   sync.Mutex
	last string
}

func (c *Client) persisting(ctx context.Context, userID int64, tok *oauth2.Token) *persistingTokenSource {
	return &persistingTokenSource{
		client: c,
		ctx:    ctx,
		userID: userID,
		base:   c.oauth.TokenSource(c.oauthContext(ctx), tok),
		last:   tok.AccessToken,
	}
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		if _, err := s.client.save(s.ctx, s.userID, tok); err != nil {
			return nil, err
		}
		s.last = tok.AccessToken
	}
	return tok, nil
}
