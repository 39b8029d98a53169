package session

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrTokenExpired = errors.New("session token has expired")

// claims is the part of the access token the client relies on. The signature is the
// backend's to verify; the client only reads.
type claims struct {
	Email     string
	Role      string
	UserID    int
	ExpiresAt time.Time
}

func (c claims) expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

func parseClaims(token string) (claims, error) {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return claims{}, fmt.Errorf("parse token: %w", err)
	}

	var c claims
	c.Email, _ = mc.GetSubject()
	if email, ok := mc["email"].(string); ok && email != "" {
		c.Email = email
	}
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))

	if role, ok := mc["role"].(string); ok {
		c.Role = strings.ToLower(strings.TrimSpace(role))
	}

	exp, err := mc.GetExpirationTime()
	if err != nil {
		return claims{}, fmt.Errorf("parse token expiry: %w", err)
	}
	if exp != nil {
		c.ExpiresAt = exp.Time.UTC()
	}

	for _, key := range []string{"user_id", "userId", "uid", "id"} {
		if id, ok := claimInt(mc[key]); ok {
			c.UserID = id
			break
		}
	}

	return c, nil
}

func claimInt(v any) (int, bool) {
	switch typed := v.(type) {
	case float64:
		if typed > 0 && typed == float64(int(typed)) {
			return int(typed), true
		}
	case string:
		if id, err := strconv.Atoi(strings.TrimSpace(typed)); err == nil && id > 0 {
			return id, true
		}
	}
	return 0, false
}
