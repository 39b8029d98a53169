package smartrecruit

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

type Role string

const (
	RoleCandidate Role = "candidate"
	RoleRecruiter Role = "recruiter"
)

// Token is the bearer credential issued by the login endpoint.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Role      Role   `json:"role,omitempty"`
}

// Profile is the authenticated user as the backend describes it.
type Profile struct {
	ID        int    `json:"id,omitempty"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Role      Role   `json:"role"`
}

func (p Profile) DisplayName() string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name == "" {
		return p.Email
	}
	return name
}

// Login exchanges credentials for a bearer token. A 401 here never triggers teardown.
func (c *Client) Login(ctx context.Context, creds Credentials) (*Token, error) {
	creds.Email = strings.ToLower(strings.TrimSpace(creds.Email))
	if creds.Email == "" {
		return nil, &ValidationError{Field: "email", Reason: "is required"}
	}
	if creds.Password == "" {
		return nil, &ValidationError{Field: "password", Reason: "is required"}
	}

	var token Token
	if err := c.sendJSON(ctx, http.MethodPost, loginPath, nil, creds, &token); err != nil {
		return nil, err
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("login: response carries no access token")
	}
	return &token, nil
}

func (c *Client) Signup(ctx context.Context, req SignupRequest) error {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		return &ValidationError{Field: "email", Reason: "is required"}
	}
	if req.Password == "" {
		return &ValidationError{Field: "password", Reason: "is required"}
	}
	switch req.Role {
	case "":
		req.Role = RoleCandidate
	case RoleCandidate, RoleRecruiter:
	default:
		return &ValidationError{Field: "role", Reason: "must be candidate or recruiter"}
	}

	return c.sendJSON(ctx, http.MethodPost, signupPath, nil, req, nil)
}

// Me returns the profile bound to the current token.
func (c *Client) Me(ctx context.Context) (*Profile, error) {
	var raw map[string]any
	if err := c.getJSON(ctx, mePath, nil, &raw); err != nil {
		return nil, err
	}

	profile := &Profile{
		Email:     asString(raw["email"]),
		FirstName: asString(lookup(raw, "first_name", "firstName")),
		LastName:  asString(lookup(raw, "last_name", "lastName")),
		Role:      Role(strings.ToLower(asString(raw["role"]))),
	}
	profile.ID, _ = asInt(lookup(raw, "id", "user_id", "userId"))
	return profile, nil
}
