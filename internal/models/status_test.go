package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllowedStatusesVocabulary(t *testing.T) {
	require.Len(t, AllowedStatuses, 18)
	require.Contains(t, AllowedStatuses, DefaultStatus)

	for _, status := range AllowedStatuses {
		require.True(t, IsValidStatus(status), "expected %q to be valid", status)
	}
}

func TestNormalizeStatus(t *testing.T) {
	require.Equal(t, DefaultStatus, NormalizeStatus(""))
	require.Equal(t, DefaultStatus, NormalizeStatus("   "))
	require.Equal(t, "Onsite", NormalizeStatus("  Onsite  "))
}

func TestIsValidStatusRejectsUnknownAndCaseVariants(t *testing.T) {
	require.False(t, IsValidStatus("Bogus"))
	require.False(t, IsValidStatus("assigned"))
	require.False(t, IsValidStatus(""))
}

func TestIsValidCategory(t *testing.T) {
	for _, cat := range AttachmentCategories {
		require.True(t, IsValidCategory(cat))
	}
	require.False(t, IsValidCategory("random"))
	require.False(t, IsValidCategory("Before"))
}
