package smartrecruit

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartrecruit/smartrecruit/internal/logger"
)

const (
	contentType     = "application/json"
	contentEncoding = "gzip"
	requestIDHeader = "X-Request-Id"

	maxDetailLength = 500
)

// response is a fully read backend reply.
type response struct {
	status int
	header http.Header
	body   []byte
}

// upload is a file part of a multipart request.
type upload struct {
	field    string
	filename string
	content  io.Reader
}

func (c *Client) endpoint(path string) string {
	return strings.TrimRight(c.APIURL, "/") + path
}

// getJSON makes GET request to the backend and decodes the reply into target.
func (c *Client) getJSON(ctx context.Context, path string, q url.Values, target any) error {
	resp, err := c.do(ctx, http.MethodGet, path, q, nil, "")
	if err != nil {
		return err
	}

	return decodeBody(resp, target)
}

// sendJSON sends payload (may be nil) with the given method and decodes the reply into target (may be nil).
func (c *Client) sendJSON(ctx context.Context, method, path string, q url.Values, payload, target any) error {
	var body io.Reader
	ct := ""
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
		ct = contentType
	}

	resp, err := c.do(ctx, method, path, q, body, ct)
	if err != nil {
		return err
	}

	return decodeBody(resp, target)
}

func (c *Client) postFormData(ctx context.Context, path string, data map[string]string, file *upload, target any) error {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	for key, val := range data {
		field, err := w.CreateFormField(key)
		if err != nil {
			return err
		}

		if _, err = io.Copy(field, strings.NewReader(val)); err != nil {
			return err
		}
	}

	if file != nil {
		part, err := w.CreateFormFile(file.field, file.filename)
		if err != nil {
			return err
		}
		if _, err = io.Copy(part, file.content); err != nil {
			return fmt.Errorf("read %s: %w", file.filename, err)
		}
	}
	w.Close()

	resp, err := c.do(ctx, http.MethodPost, path, nil, &b, w.FormDataContentType())
	if err != nil {
		return err
	}

	return decodeBody(resp, target)
}

// do executes one request. It never retries: a failed call is surfaced to the caller,
// who decides whether to trigger it again.
func (c *Client) do(ctx context.Context, method, path string, q url.Values, body io.Reader, ct string) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), body)
	if err != nil {
		return nil, err
	}

	req = c.setHeaders(req)
	if ct != "" {
		req.Header.Set("Content-Type", ct)
	}
	if q != nil {
		req.URL.RawQuery = q.Encode()
	}

	c.logger.Debug("make request",
		zap.String("method", method),
		zap.String("url", req.URL.String()),
		zap.String("request_id", req.Header.Get(requestIDHeader)),
	)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	data, err := readBody(resp)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		backendErr := &BackendError{Status: resp.StatusCode, Detail: parseDetail(data)}

		c.logger.Debug("backend rejected request",
			zap.String("url", req.URL.String()),
			zap.Int("status", resp.StatusCode),
			zap.String("detail", logger.TruncateForLog(backendErr.Detail, 200)),
		)

		if backendErr.Unauthorized() && !isAuthEntryPoint(path) && c.Unauthorized != nil {
			c.logger.Info("session rejected by backend, tearing down", zap.String("path", path))
			c.Unauthorized(ctx)
		}

		return nil, backendErr
	}

	return &response{status: resp.StatusCode, header: resp.Header, body: data}, nil
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept-Encoding", contentEncoding)
	req.Header.Set("Accept", contentType)
	req.Header.Set(requestIDHeader, uuid.NewString())

	return req
}

func readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	return io.ReadAll(reader)
}

func decodeBody(resp *response, target any) error {
	if target == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}

	if err := json.Unmarshal(resp.body, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

// parseDetail extracts the human readable part of an error body. FastAPI answers with
// {"detail": "..."} or, for validation failures, {"detail": [{"msg": "..."}]}.
func parseDetail(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return logger.TruncateForLog(string(body), maxDetailLength)
	}

	for _, key := range []string{"detail", "message", "error"} {
		v, ok := payload[key]
		if !ok || v == nil {
			continue
		}

		switch typed := v.(type) {
		case string:
			return strings.TrimSpace(typed)
		case []any:
			msgs := make([]string, 0, len(typed))
			for _, item := range typed {
				if m, ok := item.(map[string]any); ok {
					if msg := asString(m["msg"]); msg != "" {
						msgs = append(msgs, msg)
						continue
					}
				}
				if s := asString(item); s != "" {
					msgs = append(msgs, s)
				}
			}
			return strings.Join(msgs, "; ")
		default:
			return asString(typed)
		}
	}

	return logger.TruncateForLog(string(body), maxDetailLength)
}

func isAuthEntryPoint(path string) bool {
	return path == loginPath || path == signupPath
}
