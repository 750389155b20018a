package tastytrade

import (
	"context"
	"net/http"
	"net/url"

	"ttstream/internal/domain/model"
)

// max symbols per instruments request
const lookupBatchSize = 100

type instrumentItems struct {
	Items []struct {
		Symbol         string `json:"symbol"`
		StreamerSymbol string `json:"streamer-symbol"`
	} `json:"items"`
}

// StreamerSymbols looks up streamer symbols via
// GET /instruments/{kind}?symbol[]=... in batches. Unknown symbols are left
// out of the result.
func (c *Client) StreamerSymbols(ctx context.Context, kind model.InstrumentType, symbols []string) (map[string]string, error) {
	out := make(map[string]string, len(symbols))
	for start := 0; start < len(symbols); start += lookupBatchSize {
		end := min(start+lookupBatchSize, len(symbols))

		q := url.Values{}
		for _, s := range symbols[start:end] {
			q.Add("symbol[]", s)
		}
		var resp instrumentItems
		if err := c.do(ctx, http.MethodGet, "/instruments/"+string(kind), q, nil, &resp, true); err != nil {
			return nil, err
		}
		for _, it := range resp.Items {
			if it.StreamerSymbol != "" {
				out[it.Symbol] = it.StreamerSymbol
			}
		}
	}
	return out, nil
}
