package companieshouse

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

type CompaniesHouseSuite struct {
	suite.Suite
	ctx context.Context
}

func TestCompaniesHouseSuite(t *testing.T) {
	suite.Run(t, new(CompaniesHouseSuite))
}

func (s *CompaniesHouseSuite) SetupTest() {
	s.ctx = context.Background()
}

func (s *CompaniesHouseSuite) newConnector(baseURL string, pageSize, maxRecords int, opts ...Option) *Connector {
	cfg := config.Source{
		Name:       "Companies House API",
		BaseURL:    baseURL,
		Burst:      10,
		PageSize:   pageSize,
		MaxRecords: maxRecords,
		Timeout:    5 * time.Second,
	}
	retry := config.Retry{MaxAttempts: 1, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}
	return New(connect.NewClient(cfg, retry), cfg, opts...)
}

// searchServer serves a fixed number of companies through the paginated
// search endpoint.
func (s *CompaniesHouseSuite) searchServer(total int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search/companies":
			start, _ := strconv.Atoi(r.URL.Query().Get("start_index"))
			size, _ := strconv.Atoi(r.URL.Query().Get("items_per_page"))

			items := []map[string]any{}
			for i := start; i < start+size && i < total; i++ {
				items = append(items, map[string]any{
					"company_name":   fmt.Sprintf("Company %03d", i),
					"company_number": fmt.Sprintf("%08d", i),
					"company_status": "active",
				})
			}
			json.NewEncoder(w).Encode(map[string]any{"items": items, "total_results": total})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func (s *CompaniesHouseSuite) TestCollectPaginates() {
	srv := s.searchServer(5)
	defer srv.Close()

	var names []string
	count, err := s.newConnector(srv.URL, 2, 0).Collect(s.ctx, func(raw connect.Raw) error {
		names = append(names, raw.String("company_name"))
		return nil
	})
	s.Require().NoError(err)
	s.Equal(5, count)
	s.Equal("Company 000", names[0])
	s.Equal("Company 004", names[4])
}

func (s *CompaniesHouseSuite) TestCollectHonoursRecordCap() {
	srv := s.searchServer(50)
	defer srv.Close()

	count, err := s.newConnector(srv.URL, 10, 25).Collect(s.ctx, func(connect.Raw) error { return nil })
	s.Require().NoError(err)
	s.Equal(25, count)
}

func (s *CompaniesHouseSuite) TestOfficersAttached() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search/companies":
			json.NewEncoder(w).Encode(map[string]any{"items": []map[string]any{
				{"company_name": "Acme Widgets Ltd", "company_number": "01234567"},
			}})
		case "/company/01234567/officers":
			json.NewEncoder(w).Encode(map[string]any{"items": []map[string]any{
				{"name": "SMITH, Jane", "officer_role": "director"},
			}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	var collected []connect.Raw
	_, err := s.newConnector(srv.URL, 10, 0, WithOfficers()).Collect(s.ctx, func(raw connect.Raw) error {
		collected = append(collected, raw)
		return nil
	})
	s.Require().NoError(err)
	s.Require().Len(collected, 1)

	officers, ok := collected[0]["officers"].([]map[string]any)
	s.Require().True(ok)
	s.Require().Len(officers, 1)
	s.Equal("SMITH, Jane", officers[0]["name"])
}

func (s *CompaniesHouseSuite) TestOfficersFailureKeepsCompany() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/search/companies" {
			json.NewEncoder(w).Encode(map[string]any{"items": []map[string]any{
				{"company_name": "Acme Widgets Ltd", "company_number": "01234567"},
			}})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	count, err := s.newConnector(srv.URL, 10, 0, WithOfficers()).Collect(s.ctx, func(raw connect.Raw) error {
		_, hasOfficers := raw["officers"]
		s.False(hasOfficers, "a failed officers fetch degrades, never drops")
		return nil
	})
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *CompaniesHouseSuite) TestSearchFailurePropagates() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := s.newConnector(srv.URL, 10, 0).Collect(s.ctx, func(connect.Raw) error { return nil })
	s.Require().Error(err)
	s.True(connect.IsAuth(err))
}

func (s *CompaniesHouseSuite) TestCategory() {
	s.Equal(domain.CategoryCompany, s.newConnector("https://example.test", 10, 0).Category())
}
