// Package companieshouse collects company records from the Companies
// House search API, optionally enriched with each company's officer
// register.
package companieshouse

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"

	"kosmos/internal/connect"
	"kosmos/internal/domain"
	"kosmos/internal/platform/config"
)

// Connector pages through /search/companies. Without an API key the
// public tier applies; the Authorization header is attached when a key
// is configured.
type Connector struct {
	client        *connect.Client
	cfg           config.Source
	query         string
	fetchOfficers bool
	logger        *slog.Logger
}

// Option configures the connector.
type Option func(*Connector)

// WithQuery overrides the free-text search query.
func WithQuery(q string) Option {
	return func(c *Connector) { c.query = q }
}

// WithOfficers enables the per-company officers fetch. One extra request
// per company, so only sensible with an API key.
func WithOfficers() Option {
	return func(c *Connector) { c.fetchOfficers = true }
}

// WithLogger sets the connector logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Connector) { c.logger = logger }
}

// New builds a Companies House connector over the shared client.
func New(client *connect.Client, cfg config.Source, opts ...Option) *Connector {
	c := &Connector{
		client: client,
		cfg:    cfg,
		query:  "company",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Connector) Category() domain.Category {
	return domain.CategoryCompany
}

func (c *Connector) Source() domain.SourceRef {
	return domain.SourceRef{
		URL:            c.cfg.BaseURL,
		Name:           c.cfg.Name,
		PublicRegister: true,
	}
}

type searchPage struct {
	Items        []map[string]any `json:"items"`
	TotalResults int              `json:"total_results"`
}

type officersPage struct {
	Items []map[string]any `json:"items"`
}

// Collect pages through the search results from start_index 0. Pagination
// stops at a short page, the configured record cap, or context
// cancellation. A failed officers fetch degrades the record, it does not
// drop it.
func (c *Connector) Collect(ctx context.Context, emit func(connect.Raw) error) (int, error) {
	emitted := 0
	startIndex := 0

	for {
		if err := ctx.Err(); err != nil {
			return emitted, connect.NewError(connect.ClassPermanent, c.cfg.Name, "cancelled", err)
		}

		pageSize := c.cfg.PageSize
		if c.cfg.MaxRecords > 0 && startIndex+pageSize > c.cfg.MaxRecords {
			pageSize = c.cfg.MaxRecords - startIndex
		}
		if pageSize <= 0 {
			return emitted, nil
		}

		params := url.Values{}
		params.Set("q", c.query)
		params.Set("start_index", strconv.Itoa(startIndex))
		params.Set("items_per_page", strconv.Itoa(pageSize))

		var page searchPage
		if err := c.client.GetJSON(ctx, "/search/companies", params, &page); err != nil {
			return emitted, err
		}

		for _, item := range page.Items {
			raw := connect.Raw(item)
			if c.fetchOfficers {
				c.attachOfficers(ctx, raw)
			}
			if err := emit(raw); err != nil {
				return emitted, err
			}
			emitted++
		}

		if len(page.Items) < pageSize {
			return emitted, nil
		}
		startIndex += pageSize
	}
}

// attachOfficers adds the officer register under "officers". Permanent
// failures here are logged and skipped so one missing register never
// costs the company record.
func (c *Connector) attachOfficers(ctx context.Context, raw connect.Raw) {
	number := raw.String("company_number")
	if number == "" {
		return
	}
	var page officersPage
	if err := c.client.GetJSON(ctx, "/company/"+number+"/officers", nil, &page); err != nil {
		if c.logger != nil {
			c.logger.WarnContext(ctx, "officers fetch failed",
				"company_number", number, "error", err)
		}
		return
	}
	raw["officers"] = page.Items
}
