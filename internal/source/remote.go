package source

import (
	"context"
	"fmt"
	"net/url"

	"github.com/wonny/bankrank/backend/internal/contracts"
	"github.com/wonny/bankrank/backend/pkg/httputil"
)

// LoadURL downloads a ratio document and parses it. The format comes from the
// URL path extension; pages without one are treated as HTML.
func LoadURL(ctx context.Context, client *httputil.Client, rawURL string) ([]contracts.RawBank, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}

	format := detectFormat(u.Path, FormatHTML)

	body, err := client.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	return Parse(format, body)
}
