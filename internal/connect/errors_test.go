package connect

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"kosmos/internal/domain"
)

type stubConnector struct {
	name string
}

func (s *stubConnector) Category() domain.Category { return domain.CategoryCompany }

func (s *stubConnector) Source() domain.SourceRef {
	return domain.SourceRef{URL: "https://example.test", Name: s.name, PublicRegister: true}
}

func (s *stubConnector) Collect(context.Context, func(Raw) error) (int, error) {
	return 0, nil
}

func TestErrorClassification(t *testing.T) {
	t.Run("class of wrapped connector error", func(t *testing.T) {
		err := NewError(ClassTransient, "Test Register", "status 503", nil)
		wrapped := fmt.Errorf("page 3: %w", err)

		assert.Equal(t, ClassTransient, ClassOf(wrapped))
		assert.True(t, IsRetryable(wrapped))
		assert.False(t, IsAuth(wrapped))
	})

	t.Run("unclassified errors are permanent", func(t *testing.T) {
		err := errors.New("something odd")
		assert.Equal(t, ClassPermanent, ClassOf(err))
		assert.False(t, IsRetryable(err))
	})

	t.Run("auth class", func(t *testing.T) {
		err := NewError(ClassAuth, "Test Register", "status 401", nil)
		assert.True(t, IsAuth(err))
		assert.False(t, IsRetryable(err))
	})

	t.Run("unwrap reaches the cause", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := NewError(ClassTransient, "Test Register", "request failed", cause)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("message includes source and class", func(t *testing.T) {
		err := NewError(ClassAuth, "Charity Commission API", "status 403", nil)
		assert.Contains(t, err.Error(), "Charity Commission API")
		assert.Contains(t, err.Error(), "auth")
	})
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry()

	first := &stubConnector{name: "Register A"}
	second := &stubConnector{name: "Register B"}

	assert.NoError(t, registry.Register(first))
	assert.NoError(t, registry.Register(second))
	assert.Error(t, registry.Register(&stubConnector{name: "Register A"}), "duplicate source names rejected")

	all := registry.All()
	assert.Len(t, all, 2)
	assert.Equal(t, "Register A", all[0].Source().Name)
	assert.Equal(t, "Register B", all[1].Source().Name)
}

func TestRawString(t *testing.T) {
	raw := Raw{"s": "value", "ws": "  padded \n", "n": float64(3), "m": map[string]any{}}
	assert.Equal(t, "value", raw.String("s"))
	assert.Equal(t, "padded", raw.String("ws"))
	assert.Equal(t, "", raw.String("n"))
	assert.Equal(t, "", raw.String("m"))
	assert.Equal(t, "", raw.String("missing"))
}
