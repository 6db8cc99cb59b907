package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/akobyansamvel/curs/internal/models"
)

// Credentials for the password login endpoint.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse is what the auth endpoints return on success.
type AuthResponse struct {
	Token   string         `json:"token"`
	User    models.User    `json:"user"`
	Profile models.Profile `json:"profile"`
}

// Login exchanges credentials for a bearer token and stores it on the
// client.
func (c *Client) Login(ctx context.Context, creds Credentials) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login/", creds, &out); err != nil {
		return nil, err
	}
	c.token = out.Token
	return &out, nil
}

// RegisterForm is the self-registration payload.
type RegisterForm struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
}

// Register creates an account and logs in.
func (c *Client) Register(ctx context.Context, form RegisterForm) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register/", form, &out); err != nil {
		return nil, err
	}
	c.token = out.Token
	return &out, nil
}

// Logout invalidates the session server-side. The local token is dropped
// regardless of the outcome.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/auth/logout/", nil, nil)
	c.token = ""
	return err
}

// TelegramAuth logs in with a one-time code issued by the telegram bot.
func (c *Client) TelegramAuth(ctx context.Context, code string) (*AuthResponse, error) {
	var out AuthResponse
	body := map[string]string{"code": code}
	if err := c.do(ctx, http.MethodPost, "/auth/telegram/", body, &out); err != nil {
		return nil, err
	}
	c.token = out.Token
	return &out, nil
}

// ConnectTelegram links the current account to a telegram chat via a
// one-time code.
func (c *Client) ConnectTelegram(ctx context.Context, code string) error {
	return c.do(ctx, http.MethodPost, "/profile/connect-telegram/", map[string]string{"code": code}, nil)
}

// TokenIdentity extracts the subject and expiry from a bearer token without
// verifying its signature — the secret lives on the server; this is only for
// local display (whoami) and expiry checks before a round-trip.
func TokenIdentity(token string) (subject string, expiresAt time.Time, err error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return "", time.Time{}, fmt.Errorf("api: parse token: %w", err)
	}
	sub, _ := claims.GetSubject()
	exp, _ := claims.GetExpirationTime()
	if exp == nil {
		return sub, time.Time{}, nil
	}
	return sub, exp.Time, nil
}
