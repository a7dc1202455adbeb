package models

import (
	"testing"
	"time"

	e "github.com/gartstein/hrms/internal/hrms/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnboardingChecklist(t *testing.T) {
	now := time.Now()
	checklist := NewChecklist([]DocumentRequirement{
		{Type: "id_proof", Label: "ID Proof", Required: true},
		{Type: "photo", Label: "Photo", Required: false},
	})

	verified, total := checklist.Progress()
	assert.Equal(t, 0, verified)
	assert.Equal(t, 1, total)
	assert.False(t, checklist.Complete())

	assert.ErrorIs(t, checklist.Upload("visa", "https://x", now), e.ErrNotFound)
	assert.ErrorIs(t, checklist.Upload("id_proof", "", now), e.ErrInvalidInput)
	assert.ErrorIs(t, checklist.Verify("id_proof", true, "", "hr-1", now), e.ErrInvalidState)

	require.NoError(t, checklist.Upload("id_proof", "https://files.example.com/id.pdf", now))
	assert.ErrorIs(t, checklist.Verify("id_proof", false, "", "hr-1", now), e.ErrInvalidInput)
	require.NoError(t, checklist.Verify("id_proof", false, "blurry scan", "hr-1", now))
	assert.Equal(t, DocumentRejected, checklist.Items[0].Status)

	require.NoError(t, checklist.Upload("id_proof", "https://files.example.com/id-v2.pdf", now))
	assert.Empty(t, checklist.Items[0].Remarks)
	require.NoError(t, checklist.Verify("id_proof", true, "", "hr-1", now))
	assert.True(t, checklist.Complete(), "optional documents do not block completion")

	assert.ErrorIs(t, checklist.Upload("id_proof", "https://x", now), e.ErrInvalidState)
}
