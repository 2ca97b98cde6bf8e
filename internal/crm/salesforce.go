// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

// Package crm relays account creation to Salesforce on behalf of a user.
//
// Each user connects their own Salesforce org through the OAuth code flow.
// Tokens are kept in the crm_credentials table and refreshed when they expire;
// nothing is held in process memory between requests.
package crm

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/Umar7799/course-project/internal/model"
	"github.com/Umar7799/course-project/internal/store"
)

// ProviderSalesforce is the provider name stored with credentials.
const ProviderSalesforce = "salesforce"

// defaultTokenLifetime is assumed when the token response carries no
// expires_in. Salesforce sessions default to two hours.
const defaultTokenLifetime = 2 * time.Hour

// ErrNotConnected is returned when a user has not connected Salesforce.
var ErrNotConnected = errors.New("crm: salesforce not connected")

// APIError is a non-2xx answer of the Salesforce REST API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("salesforce api: status %d: %s", e.StatusCode, e.Body)
}

// CredentialStore persists per-user tokens. *store.Queries implements it.
type CredentialStore interface {
	GetCRMCredential(ctx context.Context, userID int64) (store.CRMCredential, error)
	UpsertCRMCredential(ctx context.Context, arg store.UpsertCRMCredentialParams) (store.CRMCredential, error)
	ListCRMCredentialsExpiringBefore(ctx context.Context, t time.Time) ([]store.CRMCredential, error)
}

// Config holds the connected app settings.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// LoginURL is https://login.salesforce.com or a sandbox/My Domain URL.
	LoginURL   string
	APIVersion string
	// HTTPClient is used for token and REST calls. Defaults to a client with a
	// 15 second timeout.
	HTTPClient *http.Client
}

// Client talks to Salesforce for any connected user.
type Client struct {
	oauth      *oauth2.Config
	store      CredentialStore
	apiVersion string
	httpClient *http.Client
	now        func() time.Time
	observe    func(operation string, err error)
}

// New creates a Client.
func New(cfg Config, s CredentialStore) *Client {
	loginURL := strings.TrimRight(cfg.LoginURL, "/")
	if loginURL == "" {
		loginURL = "https://login.salesforce.com"
	}
	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = "v60.0"
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	return &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"api", "refresh_token"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   loginURL + "/services/oauth2/authorize",
				TokenURL:  loginURL + "/services/oauth2/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		store:      s,
		apiVersion: apiVersion,
		httpClient: httpClient,
		now:        time.Now,
		observe:    func(string, error) {},
	}
}

// SetObserver registers fn to be told about every Salesforce call.
func (c *Client) SetObserver(fn func(operation string, err error)) {
	if fn != nil {
		c.observe = fn
	}
}

// AuthCodeURL returns the consent page URL for state.
func (c *Client) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

func (c *Client) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// Exchange trades an authorization code for tokens and stores them for userID.
func (c *Client) Exchange(ctx context.Context, userID int64, code string) (store.CRMCredential, error) {
	tok, err := c.oauth.Exchange(c.oauthContext(ctx), code)
	c.observe("exchange", err)
	if err != nil {
		return store.CRMCredential{}, fmt.Errorf("exchanging code: %w", err)
	}

	cred, err := c.save(ctx, userID, tok)
	if err != nil {
		return store.CRMCredential{}, err
	}

	slog.InfoContext(ctx, "salesforce connected",
		"category", model.EventCategoryCRM,
		"user_id", userID,
		"instance_url", cred.InstanceURL,
	)
	return cred, nil
}

// Status reports whether userID has connected Salesforce.
type Status struct {
	Connected   bool       `json:"connected"`
	InstanceURL string     `json:"instanceUrl,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

// Status returns the connection state of userID.
func (c *Client) Status(ctx context.Context, userID int64) (Status, error) {
	cred, err := c.store.GetCRMCredential(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Status{}, nil
		}
		return Status{}, fmt.Errorf("loading credentials: %w", err)
	}

	st := Status{Connected: true, InstanceURL: cred.InstanceURL}
	if cred.Expiry.Valid {
		t := cred.Expiry.Time
		st.ExpiresAt = &t
	}
	return st, nil
}

// AccountInput is the data sent when creating an Account with its Contact.
type AccountInput struct {
	Company   string
	Phone     string
	Website   string
	FirstName string
	LastName  string
	Email     string
}

// AccountResult holds the ids Salesforce assigned.
type AccountResult struct {
	AccountID string `json:"accountId"`
	ContactID string `json:"contactId"`
}

// CreateAccount creates an Account and a Contact linked to it in the org of userID.
func (c *Client) CreateAccount(ctx context.Context, userID int64, in AccountInput) (AccountResult, error) {
	cred, err := c.store.GetCRMCredential(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return AccountResult{}, ErrNotConnected
		}
		return AccountResult{}, fmt.Errorf("loading credentials: %w", err)
	}

	httpClient := oauth2.NewClient(c.oauthContext(ctx), c.tokenSource(ctx, cred))

	accountID, err := c.createSObject(ctx, httpClient, cred.InstanceURL, "Account", map[string]any{
		"Name":    in.Company,
		"Phone":   in.Phone,
		"Website": in.Website,
	})
	c.observe("create_account", err)
	if err != nil {
		return AccountResult{}, fmt.Errorf("creating account: %w", err)
	}

	contactID, err := c.createSObject(ctx, httpClient, cred.InstanceURL, "Contact", map[string]any{
		"FirstName": in.FirstName,
		"LastName":  in.LastName,
		"Email":     in.Email,
		"Phone":     in.Phone,
		"AccountId": accountID,
	})
	c.observe("create_contact", err)
	if err != nil {
		return AccountResult{AccountID: accountID}, fmt.Errorf("creating contact: %w", err)
	}

	return AccountResult{AccountID: accountID, ContactID: contactID}, nil
}

type sobjectResponse struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
}

func (c *Client) createSObject(ctx context.Context, hc *http.Client, instanceURL, object string, fields map[string]any) (string, error) {
	body, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/services/data/%s/sobjects/%s", strings.TrimRight(instanceURL, "/"), c.apiVersion, object)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}

	var out sobjectResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding %s response: %w", object, err)
	}
	if !out.Success || out.ID == "" {
		return "", fmt.Errorf("salesforce did not create the %s", object)
	}
	return out.ID, nil
}

// RefreshExpiring refreshes every credential expiring within the given window
// and returns how many were refreshed. A failure for one user does not stop
// the others.
func (c *Client) RefreshExpiring(ctx context.Context, within time.Duration) (int, error) {
	creds, err := c.store.ListCRMCredentialsExpiringBefore(ctx, c.now().Add(within))
	if err != nil {
		return 0, fmt.Errorf("listing expiring credentials: %w", err)
	}

	refreshed := 0
	var errs []error
	for _, cred := range creds {
		tok := tokenFromCredential(cred)
		// A past expiry makes the token source refresh on the next call.
		tok.Expiry = time.Unix(1, 0)

		_, err := c.persisting(ctx, cred.UserID, tok).Token()
		c.observe("refresh", err)
		if err != nil {
			slog.WarnContext(ctx, "salesforce token refresh failed",
				"category", model.EventCategoryCRM,
				"user_id", cred.UserID,
				"error", err,
			)
			errs = append(errs, fmt.Errorf("user %d: %w", cred.UserID, err))
			continue
		}
		refreshed++
	}
	return refreshed, errors.Join(errs...)
}

func (c *Client) tokenSource(ctx context.Context, cred store.CRMCredential) oauth2.TokenSource {
	return c.persisting(ctx, cred.UserID, tokenFromCredential(cred))
}

// save stores tok for userID. A zero expiry is replaced with the default lifetime.
func (c *Client) save(ctx context.Context, userID int64, tok *oauth2.Token) (store.CRMCredential, error) {
	expiry := tok.Expiry
	if expiry.IsZero() {
		expiry = c.now().Add(defaultTokenLifetime)
	}

	instanceURL, _ := tok.Extra("instance_url").(string)
	cred, err := c.store.UpsertCRMCredential(ctx, store.UpsertCRMCredentialParams{
		UserID:       userID,
		Provider:     ProviderSalesforce,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.Type(),
		Expiry:       sql.NullTime{Time: expiry, Valid: true},
		InstanceURL:  instanceURL,
		Now:          c.now(),
	})
	if err != nil {
		return store.CRMCredential{}, fmt.Errorf("storing credentials: %w", err)
	}
	return cred, nil
}

func tokenFromCredential(cred store.CRMCredential) *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		TokenType:    cred.TokenType,
	}
	if cred.Expiry.Valid {
		tok.Expiry = cred.Expiry.Time
	}
	return tok
}
