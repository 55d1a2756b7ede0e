package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteURIParser_ParseURI(t *testing.T) {
	parser := &uriParser{}

	testCases := []struct {
		name        string
		uri         string
		expected    string
		expectError bool
	}{
		{
			name:     "absolute path",
			uri:      "sqlite:///var/data/entities.db",
			expected: "/var/data/entities.db",
		},
		{
			name:     "relative path",
			uri:      "sqlite://data/entities.db",
			expected: "data/entities.db",
		},
		{
			name:     "in-memory",
			uri:      "sqlite://:memory:",
			expected: ":memory:",
		},
		{
			name:     "sqlite3 scheme",
			uri:      "sqlite3:///var/data/entities.db",
			expected: "/var/data/entities.db",
		},
		{
			name:     "query parameters pass through",
			uri:      "sqlite://entities.db?cache=shared",
			expected: "entities.db?cache=shared",
		},
		{
			name:        "wrong scheme",
			uri:         "mysql://localhost/db",
			expectError: true,
		},
		{
			name:        "no path",
			uri:         "sqlite://",
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path, err := parser.ParseURI(tc.uri)
			if tc.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, path)
		})
	}
}

func TestSQLiteURIParser_SupportedSchemes(t *testing.T) {
	parser := &uriParser{}
	assert.ElementsMatch(t, []string{"sqlite", "sqlite3"}, parser.SupportedSchemes())
}
