// Package parliament collects MP and Lords records from the UK
// Parliament member APIs. One connector run covers both houses; records
// carry a "house" field the normalizer maps to the mp or lord category.
package parliament

import (
	"context"
	"net/url"
	"strconv"

	"kosmos/internal/connect"
	"kosmos/internal/domain"
	"kosmos/internal/platform/config"
)

const (
	mpsPath   = "/historic-mp-api/v1/members"
	lordsPath = "/historic-lords-api/v1/members"
)

// Connector pages through the historic MP and Lords member lists.
type Connector struct {
	client *connect.Client
	cfg    config.Source
}

// New builds a Parliament connector over the shared client.
func New(client *connect.Client, cfg config.Source) *Connector {
	return &Connector{client: client, cfg: cfg}
}

// Category returns the connector's primary category. Lords records map
// to their own category at normalization via the per-record house field.
func (c *Connector) Category() domain.Category {
	return domain.CategoryMP
}

func (c *Connector) Source() domain.SourceRef {
	return domain.SourceRef{
		URL:            c.cfg.BaseURL,
		Name:           c.cfg.Name,
		PublicRegister: true,
	}
}

type membersPage struct {
	Items []struct {
		Value map[string]any `json:"value"`
	} `json:"items"`
}

// Collect fetches all MPs, then all Lords. Each emitted record is the
// member's value object with a "house" marker.
func (c *Connector) Collect(ctx context.Context, emit func(connect.Raw) error) (int, error) {
	emitted, err := c.collectHouse(ctx, mpsPath, "Commons", emit, 0)
	if err != nil {
		return emitted, err
	}
	return c.collectHouse(ctx, lordsPath, "Lords", emit, emitted)
}

func (c *Connector) collectHouse(ctx context.Context, path, house string, emit func(connect.Raw) error, emitted int) (int, error) {
	page := 1
	for {
		if err := ctx.Err(); err != nil {
			return emitted, connect.NewError(connect.ClassPermanent, c.cfg.Name, "cancelled", err)
		}
		if c.cfg.MaxRecords > 0 && emitted >= c.cfg.MaxRecords {
			return emitted, nil
		}

		params := url.Values{}
		params.Set("page", strconv.Itoa(page))
		params.Set("size", strconv.Itoa(c.cfg.PageSize))

		var members membersPage
		if err := c.client.GetJSON(ctx, path, params, &members); err != nil {
			return emitted, err
		}
		if len(members.Items) == 0 {
			return emitted, nil
		}

		for _, item := range members.Items {
			if c.cfg.MaxRecords > 0 && emitted >= c.cfg.MaxRecords {
				return emitted, nil
			}
			raw := connect.Raw{}
			for k, v := range item.Value {
				raw[k] = v
			}
			raw["house"] = house
			if err := emit(raw); err != nil {
				return emitted, err
			}
			emitted++
		}

		if len(members.Items) < c.cfg.PageSize {
			return emitted, nil
		}
		page++
	}
}
