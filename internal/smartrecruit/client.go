package smartrecruit

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	apiURL    = "http://localhost:8000"
	userAgent = "smartrecruit-cli"

	defaultTimeout = 30 * time.Second
)

// TokenSource supplies the bearer token for outgoing requests.
type TokenSource interface {
	Token() string
}

type Client struct {
	tokens     TokenSource
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
	// Unauthorized runs when the backend answers 401 outside of the login and signup
	// entry points. The session wires its teardown here.
	Unauthorized func(ctx context.Context)
}

func New(logger *zap.Logger, tokens TokenSource) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		tokens: tokens,
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger:    logger,
		UserAgent: userAgent,
	}
}

func (c *Client) token() string {
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Token()
}
