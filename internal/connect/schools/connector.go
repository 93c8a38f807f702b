// Package schools collects school records from the DfE "Get Information
// About Schools" establishment CSV. The whole register comes down as one
// bulk download, so each run is a single request followed by a streaming
// parse.
package schools

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"

	"kosmos/internal/connect"
	"kosmos/internal/domain"
	"kosmos/internal/platform/config"
)

const downloadPath = "/Downloads/Establishments.csv"

// Connector downloads and parses the establishments CSV.
type Connector struct {
	client  *connect.Client
	cfg     config.Source
	logger  *slog.Logger
	skipped int
}

// Option configures the connector.
type Option func(*Connector)

// WithLogger sets the connector logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Connector) { c.logger = logger }
}

// New builds a DfE schools connector over the shared client.
func New(client *connect.Client, cfg config.Source, opts ...Option) *Connector {
	c := &Connector{client: client, cfg: cfg}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Connector) Category() domain.Category {
	return domain.CategorySchool
}

func (c *Connector) Source() domain.SourceRef {
	return domain.SourceRef{
		URL:            c.cfg.BaseURL,
		Name:           c.cfg.Name,
		PublicRegister: true,
	}
}

// Skipped reports how many malformed rows the last Collect dropped.
func (c *Connector) Skipped() int {
	return c.skipped
}

// Collect downloads the CSV and emits one raw record per row, keyed by
// header name. Rows with a broken field count are malformed payload:
// skipped, counted, and the run continues.
func (c *Connector) Collect(ctx context.Context, emit func(connect.Raw) error) (int, error) {
	c.skipped = 0

	body, err := c.client.GetBytes(ctx, downloadPath, nil)
	if err != nil {
		return 0, err
	}

	reader := csv.NewReader(bytes.NewReader(body))
	header, err := reader.Read()
	if err != nil {
		return 0, connect.NewError(connect.ClassPermanent, c.cfg.Name, "malformed payload", err)
	}

	emitted := 0
	for {
		if err := ctx.Err(); err != nil {
			return emitted, connect.NewError(connect.ClassPermanent, c.cfg.Name, "cancelled", err)
		}
		if c.cfg.MaxRecords > 0 && emitted >= c.cfg.MaxRecords {
			return emitted, nil
		}

		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return emitted, nil
		}
		if err != nil {
			if errors.Is(err, csv.ErrFieldCount) {
				c.skipped++
				if c.logger != nil {
					c.logger.WarnContext(ctx, "skipping malformed CSV row", "error", err)
				}
				continue
			}
			return emitted, connect.NewError(connect.ClassPermanent, c.cfg.Name, "malformed payload", err)
		}

		raw := connect.Raw{}
		for i, name := range header {
			if i < len(row) {
				raw[name] = row[i]
			}
		}
		if err := emit(raw); err != nil {
			return emitted, err
		}
		emitted++
	}
}
