package tastytrade

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// envelope is the {"data": ...} wrapper around every successful response.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func addDefaultHeaders(h http.Header) {
	h.Set("User-Agent", userAgent)
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "application/json")
}

// do sends one request and decodes the "data" member into out when out is
// not nil. authed requests fail with ErrNotLoggedIn before Login.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload, out any, authed bool) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	addDefaultHeaders(req.Header)
	if authed {
		token := c.sessionToken()
		if token == "" {
			return ErrNotLoggedIn
		}
		req.Header.Set("Authorization", token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: string(raw)}
		var ee errorEnvelope
		if json.Unmarshal(raw, &ee) == nil && ee.Error.Message != "" {
			apiErr.Code = ee.Error.Code
			apiErr.Message = ee.Error.Message
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%s %s: decode data: %w", method, path, err)
	}
	return nil
}
