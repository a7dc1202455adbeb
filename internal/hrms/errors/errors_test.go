package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	v := NewValidationError()
	assert.NoError(t, v.OrNil())

	v.Add("title", "is required")
	v.Addf("weightage", "must total 100, got %.2f", 99.0)

	err := v.OrNil()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, fmt.Errorf("create review: %w", err), ErrInvalidInput)
	assert.Contains(t, err.Error(), "title: is required")
	assert.Len(t, v.Fields, 2)
}

func TestValidationError_Merge(t *testing.T) {
	inner := NewValidationError()
	inner.Add("title", "is required")

	outer := NewValidationError()
	outer.Merge("kpis[0]", inner)
	outer.Merge("other", errors.New("boom"))
	outer.Merge("none", nil)

	require.Len(t, outer.Fields, 2)
	assert.Equal(t, "kpis[0].title", outer.Fields[0].Field)
	assert.Equal(t, "other", outer.Fields[1].Field)
}

func TestInvalidState(t *testing.T) {
	err := InvalidState("offer requires status %s", "Selected")
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, "invalid state: offer requires status Selected", err.Error())
}
