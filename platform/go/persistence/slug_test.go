package persistence

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeSlug(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		input       string
		expectSlug  string
		expectError bool
	}{
		{
			name:       "already normalized",
			input:      "nairobi-west-clinic",
			expectSlug: "nairobi-west-clinic",
		},
		{
			name:       "trims whitespace and lowercases",
			input:      "  Mombasa-Clinic ",
			expectSlug: "mombasa-clinic",
		},
		{
			name:       "spaces become hyphens",
			input:      "Nairobi West Clinic",
			expectSlug: "nairobi-west-clinic",
		},
		{
			name:       "underscores become hyphens",
			input:      "kisumu_health_centre",
			expectSlug: "kisumu-health-centre",
		},
		{
			name:       "mixed separators collapse",
			input:      "Eldoret  _ Hospital",
			expectSlug: "eldoret-hospital",
		},
		{
			name:        "empty string",
			input:       "   ",
			expectError: true,
		},
		{
			name:        "punctuation",
			input:       "st. mary's",
			expectError: true,
		},
		{
			name:        "leading hyphen",
			input:       "-bad-slug",
			expectError: true,
		},
		{
			name:        "trailing hyphen",
			input:       "bad-slug-",
			expectError: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			slug, err := NormalizeSlug(tt.input)
			if tt.expectError {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.expectSlug, slug)
		})
	}
}
