package httptransport

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"kosmos/internal/collectlog"
	"kosmos/internal/domain"
	"kosmos/internal/geo"
	"kosmos/internal/readiness"
	"kosmos/internal/store"
	"kosmos/pkg/testutil"
)

// failingLog stands in for a log whose backing file is unreadable.
type failingLog struct{}

func (failingLog) Append(context.Context, domain.CollectionLogEntry) error {
	return errors.New("disk gone")
}

func (failingLog) List(context.Context) ([]domain.CollectionLogEntry, error) {
	return nil, errors.New("disk gone")
}

type HandlerSuite struct {
	suite.Suite
	artifacts *store.ArtifactStore
	log       *collectlog.FileStore
	router    http.Handler
	ctx       context.Context
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	dir := s.T().TempDir()

	artifacts, err := store.New(dir)
	s.Require().NoError(err)
	s.artifacts = artifacts

	logStore, err := collectlog.NewFileStore(dir)
	s.Require().NoError(err)
	s.log = logStore

	s.router = NewRouter(NewHandler(artifacts, logStore, geo.New(), nil))
	s.ctx = context.Background()
}

func (s *HandlerSuite) seed() {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	schools := []domain.Entity{{
		ID:         "s-1",
		EntityType: domain.EntityOrganisation,
		Category:   domain.CategorySchool,
		Name:       "Hill View Primary School",
		Address:    domain.Address{Town: "Nottingham", Postcode: "NG1 2AB", Country: "UK"},
		Contact:    domain.Contact{Email: "office@hillview.example.sch.uk"},
		RoleDetail: domain.RoleDetail{Head: &domain.PersonRef{Name: "Priya Patel"}},
		Enrichment: domain.Enrichment{FundingEligible: true},
		Source:     domain.SourceRef{URL: "https://example.test", Name: "DfE Schools CSV", PublicRegister: true},
		Provenance: domain.Provenance{IngestedAt: now},
	}}
	mps := []domain.Entity{{
		ID:         "m-1",
		EntityType: domain.EntityPerson,
		Category:   domain.CategoryMP,
		Name:       "Example, Alex",
		Address:    domain.Address{Country: "UK"},
		Source:     domain.SourceRef{URL: "https://example.test", Name: "UK Parliament API", PublicRegister: true},
		Provenance: domain.Provenance{IngestedAt: now},
	}}
	s.Require().NoError(s.artifacts.WriteSnapshot(s.ctx, domain.CategorySchool, "DfE Schools CSV", schools, now))
	s.Require().NoError(s.artifacts.WriteSnapshot(s.ctx, domain.CategoryMP, "UK Parliament API", mps, now))
}

func (s *HandlerSuite) TestEntities() {
	s.seed()

	s.Run("all entities", func() {
		rr := testutil.Get(s.router, "/entities")
		testutil.AssertStatus(s.T(), rr, http.StatusOK)

		entities := testutil.Decode[[]domain.Entity](s.T(), rr)
		s.Len(entities, 2)
	})

	s.Run("filtered by category", func() {
		rr := testutil.Get(s.router, "/entities?category=school")
		testutil.AssertStatus(s.T(), rr, http.StatusOK)

		entities := testutil.Decode[[]domain.Entity](s.T(), rr)
		s.Require().Len(entities, 1)
		s.Equal("Hill View Primary School", entities[0].Name)
	})

	s.Run("unknown category is a bad request", func() {
		rr := testutil.Get(s.router, "/entities?category=quango")
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
		s.NotEmpty(testutil.ErrorMessage(s.T(), rr))
	})

	s.Run("valid category with no artifacts is not found", func() {
		rr := testutil.Get(s.router, "/entities?category=charity")
		testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
	})
}

func (s *HandlerSuite) TestEntitiesEmptyStore() {
	rr := testutil.Get(s.router, "/entities")
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	s.Equal("[]", string(rr.Body.Bytes()[:2]), "empty store serves an empty array, not null")
}

func (s *HandlerSuite) TestCategories() {
	s.seed()

	rr := testutil.Get(s.router, "/categories")
	testutil.AssertStatus(s.T(), rr, http.StatusOK)

	counts := testutil.Decode[[]store.CategoryCount](s.T(), rr)
	s.Require().Len(counts, 2)
	s.Equal(domain.CategoryMP, counts[0].Category)
	s.Equal(1, counts[0].Count)
	s.Equal(domain.CategorySchool, counts[1].Category)
}

func (s *HandlerSuite) TestLog() {
	entry := domain.CollectionLogEntry{
		Timestamp: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		Category:  domain.CategorySchool,
		Source:    "DfE Schools CSV",
		Records:   2,
		Status:    domain.RunSuccess,
	}
	s.Require().NoError(s.log.Append(s.ctx, entry))

	rr := testutil.Get(s.router, "/log")
	testutil.AssertStatus(s.T(), rr, http.StatusOK)

	entries := testutil.Decode[[]domain.CollectionLogEntry](s.T(), rr)
	s.Require().Len(entries, 1)
	s.Equal("DfE Schools CSV", entries[0].Source)
	s.Equal(domain.RunSuccess, entries[0].Status)
}

func (s *HandlerSuite) TestLogFailure() {
	router := NewRouter(NewHandler(s.artifacts, failingLog{}, geo.New(), nil))
	rr := testutil.Get(router, "/log")
	testutil.AssertStatus(s.T(), rr, http.StatusInternalServerError)
}

func (s *HandlerSuite) TestMarkers() {
	s.seed()

	rr := testutil.Get(s.router, "/map/markers")
	testutil.AssertStatus(s.T(), rr, http.StatusOK)

	// The MP record has no postcode and is omitted.
	markers := testutil.Decode[[]Marker](s.T(), rr)
	s.Require().Len(markers, 1)

	m := markers[0]
	s.Equal("Hill View Primary School", m.Name)
	s.Equal(domain.CategorySchool, m.Category)
	s.Equal("Nottingham", m.Town)
	s.Equal(readiness.Complete, m.Readiness)
	s.InDelta(52.95, m.Position.Lat, 0.1, "NG prefix lands near Nottingham")
	s.False(m.Position.Approximate)
}

func (s *HandlerSuite) TestHealthz() {
	rr := testutil.Get(s.router, "/healthz")
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	s.Equal("ok", testutil.Decode[map[string]string](s.T(), rr)["status"])
}

func (s *HandlerSuite) TestMetricsExposed() {
	rr := testutil.Get(s.router, "/metrics")
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
}
