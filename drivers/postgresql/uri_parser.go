package postgresql

import (
	"fmt"
	"net/url"
	"strings"
)

// uriParser normalizes postgresql:// and postgres:// URIs into the URL
// form lib/pq accepts natively.
type uriParser struct{}

func (p *uriParser) ParseURI(uri string) (string, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("invalid URI format: %w", err)
	}
	if parsed.Scheme != "postgresql" && parsed.Scheme != "postgres" {
		return "", fmt.Errorf("unsupported URI scheme: %s", parsed.Scheme)
	}
	if strings.TrimPrefix(parsed.Path, "/") == "" {
		return "", fmt.Errorf("postgresql URI %q has no database name", uri)
	}

	// lib/pq wants the postgres:// spelling.
	parsed.Scheme = "postgres"
	if parsed.Query().Get("sslmode") == "" {
		query := parsed.Query()
		query.Set("sslmode", "disable")
		parsed.RawQuery = query.Encode()
	}
	return parsed.String(), nil
}

func (p *uriParser) SupportedSchemes() []string {
	return []string{"postgresql", "postgres"}
}
