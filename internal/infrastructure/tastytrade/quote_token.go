package tastytrade

import (
	"context"
	"errors"
	"net/http"

	"ttstream/internal/application/port"
)

type quoteTokenResponse struct {
	Token     string `json:"token"`
	DXLinkURL string `json:"dxlink-url"`
	Level     string `json:"level"`
}

// QuoteToken fetches DXLink streaming credentials for the current session.
func (c *Client) QuoteToken(ctx context.Context) (port.QuoteToken, error) {
	var resp quoteTokenResponse
	if err := c.do(ctx, http.MethodGet, "/api-quote-tokens", nil, nil, &resp, true); err != nil {
		return port.QuoteToken{}, err
	}
	if resp.Token == "" || resp.DXLinkURL == "" {
		return port.QuoteToken{}, errors.New("quote token response is missing token or dxlink-url")
	}
	return port.QuoteToken{URL: resp.DXLinkURL, Token: resp.Token, Level: resp.Level}, nil
}
