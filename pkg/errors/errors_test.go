package errors_test

import (
	"errors"
	"fmt"
	"testing"

	pkgerrors "github.com/agentstation/configurator/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotFoundError(t *testing.T) {
	t.Run("basic error", func(t *testing.T) {
		err := &pkgerrors.NotFoundError{Resource: "channel", ID: "default-channel"}
		assert.Equal(t, "channel default-channel not found", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))
	})

	t.Run("wrapped error", func(t *testing.T) {
		wrapped := fmt.Errorf("loading: %w", pkgerrors.NewNotFoundError("configuration", "config.yml"))
		assert.True(t, pkgerrors.IsNotFound(wrapped))
	})
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := pkgerrors.NewValidationError("productTypes[0].attributes[0].entityType", nil, "is required")
		assert.Equal(t, "validation failed for field productTypes[0].attributes[0].entityType: is required", err.Error())
		assert.True(t, pkgerrors.IsValidationError(err))
	})

	t.Run("joined errors still match", func(t *testing.T) {
		joined := errors.Join(
			pkgerrors.NewValidationError("a", nil, "bad"),
			pkgerrors.NewValidationError("b", nil, "bad"),
		)
		assert.True(t, pkgerrors.IsValidationError(joined))
	})
}

func TestAPIError(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		target    error
		retryable bool
	}{
		{"rate limited", 429, pkgerrors.ErrRateLimited, true},
		{"server error", 503, pkgerrors.ErrProviderUnavailable, true},
		{"unauthorized", 401, pkgerrors.ErrAPIKeyInvalid, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := pkgerrors.NewAPIError("GetChannel", tt.status, "boom")
			assert.True(t, errors.Is(err, tt.target))
			assert.Equal(t, tt.retryable, err.Retryable())
			assert.Contains(t, err.Error(), "GetChannel")
		})
	}

	t.Run("wrapped transport failure is retryable", func(t *testing.T) {
		err := &pkgerrors.APIError{Operation: "GetShop", Err: errors.New("connection reset"), Message: "connection reset"}
		assert.True(t, err.Retryable())
		assert.Equal(t, "connection reset", errors.Unwrap(err).Error())
	})
}

func TestMutationError(t *testing.T) {
	t.Run("no errors yields nil", func(t *testing.T) {
		assert.NoError(t, pkgerrors.NewMutationError("attributeCreate", nil))
	})

	t.Run("formats field errors", func(t *testing.T) {
		err := pkgerrors.NewMutationError("attributeCreate", []pkgerrors.FieldError{
			{Field: "slug", Message: "Attribute with this Slug already exists.", Code: "UNIQUE"},
		})
		require.Error(t, err)
		assert.Equal(t, "attributeCreate failed: slug: Attribute with this Slug already exists. (UNIQUE)", err.Error())
		assert.True(t, pkgerrors.IsMutationError(err))

		var mutErr *pkgerrors.MutationError
		require.True(t, errors.As(err, &mutErr))
		assert.True(t, mutErr.HasMessage("ALREADY EXISTS"))
		assert.False(t, mutErr.HasMessage("activated"))
	})
}

func TestIsAlreadyExists(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"unique field error", pkgerrors.NewMutationError("channelCreate", []pkgerrors.FieldError{{Field: "slug", Code: "UNIQUE"}}), true},
		{"other field error", pkgerrors.NewMutationError("channelActivate", []pkgerrors.FieldError{{Field: "id", Code: "INVALID"}}), false},
		{"wrapped", pkgerrors.NewReconcileError("channel", "Default",
			pkgerrors.NewMutationError("channelCreate", []pkgerrors.FieldError{{Code: "UNIQUE"}})), true},
		{"not a mutation", pkgerrors.NewNotFoundError("channel", "default"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pkgerrors.IsAlreadyExists(tt.err))
		})
	}
}

func TestReconcileError(t *testing.T) {
	base := pkgerrors.NewMutationError("productCreate", []pkgerrors.FieldError{{Message: "bad"}})
	err := pkgerrors.NewReconcileError("product", "Tee", base)
	assert.Contains(t, err.Error(), `reconcile product "Tee"`)
	assert.True(t, pkgerrors.IsMutationError(err))
}

func TestWrapHelpers(t *testing.T) {
	assert.NoError(t, pkgerrors.WrapIO("read", "x", nil))
	assert.NoError(t, pkgerrors.WrapParse("yaml", "x", nil))
	assert.NoError(t, pkgerrors.WrapResource("create", "attribute", "Color", nil))

	base := errors.New("disk full")
	err := pkgerrors.WrapIO("write", "config.yml", base)
	assert.ErrorIs(t, err, base)
	assert.Contains(t, err.Error(), "write of config.yml")

	err = pkgerrors.WrapResource("assign", "productType", "T-Shirt", base)
	assert.Equal(t, "failed to assign productType T-Shirt: disk full", err.Error())
}

func TestAuthenticationError(t *testing.T) {
	err := &pkgerrors.AuthenticationError{Method: "bearer", Message: "token missing"}
	assert.True(t, errors.Is(err, pkgerrors.ErrAPIKeyRequired))
	assert.Equal(t, "authentication error (bearer): token missing", err.Error())
}
