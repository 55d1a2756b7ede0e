package base

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableForType(t *testing.T) {
	testCases := []struct {
		name        string
		entityType  string
		expectError bool
	}{
		{"simple", "article", false},
		{"with underscore", "blog_post", false},
		{"with digits", "article2", false},
		{"mixed case", "BlogPost", false},
		{"empty", "", true},
		{"with dash", "blog-post", true},
		{"with space", "blog post", true},
		{"injection attempt", "articles; DROP TABLE users", true},
		{"with quote", `art"icle`, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			table, err := TableForType(tc.entityType)
			if tc.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.entityType, table)
		})
	}
}
