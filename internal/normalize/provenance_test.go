package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kosmos/internal/domain"
)

func hashFixture() domain.Entity {
	return domain.Entity{
		EntityType: domain.EntityOrganisation,
		Category:   domain.CategorySchool,
		Name:       "Hill View Primary School",
		Address:    domain.Address{Postcode: "NG1 2AB", Town: "Nottingham", Country: "UK"},
		Contact:    domain.Contact{Email: "office@hillview.example.sch.uk"},
		RoleDetail: domain.RoleDetail{Phase: "Primary"},
		Source: domain.SourceRef{
			URL:  "https://get-information-schools.service.gov.uk",
			Name: "DfE Schools CSV",
		},
	}
}

func TestSourceHash(t *testing.T) {
	t.Run("deterministic across calls", func(t *testing.T) {
		a, err := SourceHash(hashFixture())
		require.NoError(t, err)
		b, err := SourceHash(hashFixture())
		require.NoError(t, err)
		assert.Equal(t, a, b)
		assert.Len(t, a, 64, "hex sha256")
	})

	t.Run("ignores ids and timestamps", func(t *testing.T) {
		plain, err := SourceHash(hashFixture())
		require.NoError(t, err)

		stamped := hashFixture()
		stamped.ID = "ffffffff-ffff-ffff-ffff-ffffffffffff"
		stamped.ConfidenceScore = 67
		stamped.Source.Date = "2025-03-01"
		stamped.Provenance = domain.Provenance{
			Pipeline:   "kosmos_school_collector",
			SourceHash: "stale",
			IngestedAt: time.Now(),
		}
		withStamps, err := SourceHash(stamped)
		require.NoError(t, err)
		assert.Equal(t, plain, withStamps, "non-content fields must not feed the hash")
	})

	t.Run("sensitive to content changes", func(t *testing.T) {
		a, err := SourceHash(hashFixture())
		require.NoError(t, err)

		changed := hashFixture()
		changed.Contact.Email = "head@hillview.example.sch.uk"
		b, err := SourceHash(changed)
		require.NoError(t, err)
		assert.NotEqual(t, a, b)

		renamed := hashFixture()
		renamed.Name = "Hill View Academy"
		c, err := SourceHash(renamed)
		require.NoError(t, err)
		assert.NotEqual(t, a, c)
	})
}

func TestTag(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	prov, err := Tag(hashFixture(), "kosmos_school_collector", now)
	require.NoError(t, err)

	assert.Equal(t, "kosmos_school_collector", prov.Pipeline)
	assert.Equal(t, now, prov.IngestedAt)

	want, err := SourceHash(hashFixture())
	require.NoError(t, err)
	assert.Equal(t, want, prov.SourceHash)
}
