package sqlite

import (
	"fmt"
	"net/url"
	"strings"
)

// uriParser converts refgraph sqlite URIs into native file paths.
// Supported formats:
//   - sqlite:///absolute/path/entities.db
//   - sqlite://relative/path/entities.db
//   - sqlite://:memory:
type uriParser struct{}

func (p *uriParser) ParseURI(uri string) (string, error) {
	if uri == "sqlite://:memory:" || uri == "sqlite3://:memory:" {
		return ":memory:", nil
	}

	parsed, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("invalid URI format: %w", err)
	}
	if parsed.Scheme != "sqlite" && parsed.Scheme != "sqlite3" {
		return "", fmt.Errorf("unsupported URI scheme: %s", parsed.Scheme)
	}

	// In-memory database.
	if parsed.Host == ":memory:" || strings.HasPrefix(parsed.Path, "/:memory:") {
		return ":memory:", nil
	}

	path := parsed.Path
	if parsed.Host != "" {
		// sqlite://relative/path -> relative/path
		path = parsed.Host + path
	} else if strings.HasPrefix(path, "/") && !strings.HasPrefix(uri, parsed.Scheme+":///") {
		// sqlite:/path -> path (relative)
		path = path[1:]
	}

	if parsed.RawQuery != "" {
		path = path + "?" + parsed.RawQuery
	}
	if path == "" {
		return "", fmt.Errorf("sqlite URI %q has no path", uri)
	}
	return path, nil
}

func (p *uriParser) SupportedSchemes() []string {
	return []string{"sqlite", "sqlite3"}
}
