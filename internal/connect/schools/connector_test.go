package schools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"kosmos/internal/connect"
	"kosmos/internal/domain"
	"kosmos/internal/platform/config"
)

const establishmentsCSV = `EstablishmentName,Street,Town,Postcode,TelephoneNum
Hill View Primary School,2 Hill View,Nottingham,NG1 2AB,0115 000 0000
Broken Row School,only-two-fields
Oak Lane Academy,5 Oak Lane,Leicester,LE2 3CD,0116 000 0000
`

type SchoolsSuite struct {
	suite.Suite
	ctx context.Context
}

func TestSchoolsSuite(t *testing.T) {
	suite.Run(t, new(SchoolsSuite))
}

func (s *SchoolsSuite) SetupTest() {
	s.ctx = context.Background()
}

func (s *SchoolsSuite) newConnector(baseURL string, maxRecords int) *Connector {
	cfg := config.Source{
		Name:       "DfE Schools CSV",
		BaseURL:    baseURL,
		Burst:      1,
		MaxRecords: maxRecords,
		Timeout:    5 * time.Second,
	}
	retry := config.Retry{MaxAttempts: 1, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}
	return New(connect.NewClient(cfg, retry), cfg)
}

func (s *SchoolsSuite) TestCollect() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Equal(downloadPath, r.URL.Path)
		w.Write([]byte(establishmentsCSV))
	}))
	defer srv.Close()

	connector := s.newConnector(srv.URL, 0)

	var records []connect.Raw
	count, err := connector.Collect(s.ctx, func(raw connect.Raw) error {
		records = append(records, raw)
		return nil
	})
	s.Require().NoError(err)

	// The malformed row is skipped and counted, not fatal.
	s.Equal(2, count)
	s.Equal(1, connector.Skipped())
	s.Require().Len(records, 2)
	s.Equal("Hill View Primary School", records[0].String("EstablishmentName"))
	s.Equal("NG1 2AB", records[0].String("Postcode"))
	s.Equal("Oak Lane Academy", records[1].String("EstablishmentName"))
}

func (s *SchoolsSuite) TestCollectHonoursRecordCap() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(establishmentsCSV))
	}))
	defer srv.Close()

	count, err := s.newConnector(srv.URL, 1).Collect(s.ctx, func(connect.Raw) error { return nil })
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *SchoolsSuite) TestDownloadFailure() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	count, err := s.newConnector(srv.URL, 0).Collect(s.ctx, func(connect.Raw) error { return nil })
	s.Require().Error(err)
	s.Equal(0, count)
	s.Equal(connect.ClassPermanent, connect.ClassOf(err))
}

func (s *SchoolsSuite) TestCategoryAndSource() {
	connector := s.newConnector("https://example.test", 0)
	s.Equal(domain.CategorySchool, connector.Category())

	src := connector.Source()
	s.Equal("DfE Schools CSV", src.Name)
	s.True(src.PublicRegister)
}
