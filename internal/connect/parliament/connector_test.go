package parliament

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"kosmos/internal/connect"
	"kosmos/internal/domain"
	"kosmos/internal/platform/config"
)

type ParliamentSuite struct {
	suite.Suite
	ctx context.Context
}

func TestParliamentSuite(t *testing.T) {
	suite.Run(t, new(ParliamentSuite))
}

func (s *ParliamentSuite) SetupTest() {
	s.ctx = context.Background()
}

func (s *ParliamentSuite) newConnector(baseURL string, pageSize, maxRecords int) *Connector {
	cfg := config.Source{
		Name:       "UK Parliament API",
		BaseURL:    baseURL,
		Burst:      10,
		PageSize:   pageSize,
		MaxRecords: maxRecords,
		Timeout:    5 * time.Second,
	}
	retry := config.Retry{MaxAttempts: 1, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}
	return New(connect.NewClient(cfg, retry), cfg)
}

// memberServer serves fixed member counts for each house.
func memberServer(mps, lords int) *httptest.Server {
	page := func(total int, kind string, r *http.Request) []map[string]any {
		pageNum, _ := strconv.Atoi(r.URL.Query().Get("page"))
		size, _ := strconv.Atoi(r.URL.Query().Get("size"))
		start := (pageNum - 1) * size

		items := []map[string]any{}
		for i := start; i < start+size && i < total; i++ {
			items = append(items, map[string]any{
				"value": map[string]any{
					"name":      map[string]any{"listAs": fmt.Sprintf("%s %03d", kind, i)},
					"party":     map[string]any{"name": "Independent"},
					"fullTitle": fmt.Sprintf("%s %03d", kind, i),
				},
			})
		}
		return items
	}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case mpsPath:
			json.NewEncoder(w).Encode(map[string]any{"items": page(mps, "MP", r)})
		case lordsPath:
			json.NewEncoder(w).Encode(map[string]any{"items": page(lords, "Lord", r)})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func (s *ParliamentSuite) TestCollectBothHouses() {
	srv := memberServer(3, 2)
	defer srv.Close()

	houses := map[string]int{}
	count, err := s.newConnector(srv.URL, 2, 0).Collect(s.ctx, func(raw connect.Raw) error {
		houses[raw.String("house")]++
		return nil
	})
	s.Require().NoError(err)
	s.Equal(5, count)
	s.Equal(3, houses["Commons"])
	s.Equal(2, houses["Lords"])
}

func (s *ParliamentSuite) TestRecordsCarryFlattenedValue() {
	srv := memberServer(1, 0)
	defer srv.Close()

	var collected []connect.Raw
	_, err := s.newConnector(srv.URL, 10, 0).Collect(s.ctx, func(raw connect.Raw) error {
		collected = append(collected, raw)
		return nil
	})
	s.Require().NoError(err)
	s.Require().Len(collected, 1)

	name, ok := collected[0]["name"].(map[string]any)
	s.Require().True(ok, "the member value object is flattened into the record")
	s.Equal("MP 000", name["listAs"])
	s.Equal("Commons", collected[0].String("house"))
}

func (s *ParliamentSuite) TestCollectHonoursRecordCap() {
	srv := memberServer(10, 10)
	defer srv.Close()

	count, err := s.newConnector(srv.URL, 5, 7).Collect(s.ctx, func(connect.Raw) error { return nil })
	s.Require().NoError(err)
	s.Equal(7, count)
}

func (s *ParliamentSuite) TestMPFailureStopsRun() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	count, err := s.newConnector(srv.URL, 5, 0).Collect(s.ctx, func(connect.Raw) error { return nil })
	s.Require().Error(err)
	s.Equal(0, count)
}

func (s *ParliamentSuite) TestCategory() {
	s.Equal(domain.CategoryMP, s.newConnector("https://example.test", 5, 0).Category())
}
