// Package charities collects charity records from the Charity
// Commission register API. The API requires a key for any real volume;
// a 401/403 aborts this connector only.
package charities

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"

	"kosmos/internal/connect"
	"kosmos/internal/domain"
	"kosmos/internal/platform/config"
)

// Connector searches the register and enriches each hit with the
// charity's detail record and trustee count.
type Connector struct {
	client  *connect.Client
	cfg     config.Source
	query   string
	logger  *slog.Logger
	skipped int
}

// Option configures the connector.
type Option func(*Connector)

// WithQuery sets the register search term.
func WithQuery(q string) Option {
	return func(c *Connector) { c.query = q }
}

// WithLogger sets the connector logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Connector) { c.logger = logger }
}

// New builds a Charity Commission connector over the shared client.
func New(client *connect.Client, cfg config.Source, opts ...Option) *Connector {
	c := &Connector{client: client, cfg: cfg, query: "charity"}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Connector) Category() domain.Category {
	return domain.CategoryCharity
}

func (c *Connector) Source() domain.SourceRef {
	return domain.SourceRef{
		URL:            c.cfg.BaseURL,
		Name:           c.cfg.Name,
		PublicRegister: true,
	}
}

type searchResult struct {
	Charities []map[string]any `json:"charities"`
}

type trusteesResult struct {
	Trustees []map[string]any `json:"trustees"`
}

// Skipped reports how many search hits the last Collect dropped, either
// for lacking a charity number or for a failed detail fetch.
func (c *Connector) Skipped() int {
	return c.skipped
}

// Collect searches the register and emits one enriched record per
// charity. Detail fetch failures of the permanent class skip that
// charity; auth failures abort the connector.
func (c *Connector) Collect(ctx context.Context, emit func(connect.Raw) error) (int, error) {
	c.skipped = 0

	params := url.Values{}
	params.Set("search", c.query)
	params.Set("size", strconv.Itoa(c.cfg.PageSize))

	var result searchResult
	if err := c.client.GetJSON(ctx, "/search", params, &result); err != nil {
		return 0, err
	}

	emitted := 0
	for _, item := range result.Charities {
		if err := ctx.Err(); err != nil {
			return emitted, connect.NewError(connect.ClassPermanent, c.cfg.Name, "cancelled", err)
		}
		if c.cfg.MaxRecords > 0 && emitted >= c.cfg.MaxRecords {
			return emitted, nil
		}

		number := connect.Raw(item).String("charityNumber")
		if number == "" {
			if n, ok := item["charityNumber"].(float64); ok {
				number = strconv.Itoa(int(n))
			}
		}
		if number == "" {
			c.skipped++
			if c.logger != nil {
				c.logger.WarnContext(ctx, "skipping search hit without charity number")
			}
			continue
		}

		raw, err := c.fetchCharity(ctx, number)
		if err != nil {
			if connect.IsAuth(err) {
				return emitted, err
			}
			c.skipped++
			if c.logger != nil {
				c.logger.WarnContext(ctx, "charity detail fetch failed",
					"charity_number", number, "error", err)
			}
			continue
		}

		if err := emit(raw); err != nil {
			return emitted, err
		}
		emitted++
	}
	return emitted, nil
}

func (c *Connector) fetchCharity(ctx context.Context, number string) (connect.Raw, error) {
	var detail map[string]any
	if err := c.client.GetJSON(ctx, "/charity/"+number, nil, &detail); err != nil {
		return nil, err
	}
	raw := connect.Raw(detail)

	// Trustee count is enrichment; a failed fetch never drops the record.
	var trustees trusteesResult
	if err := c.client.GetJSON(ctx, "/charity/"+number+"/trustees", nil, &trustees); err == nil {
		raw["trustees"] = trustees.Trustees
	} else if connect.IsAuth(err) {
		return nil, err
	}
	return raw, nil
}
