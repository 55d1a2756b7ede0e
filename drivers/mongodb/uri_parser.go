package mongodb

import (
	"fmt"
	"net/url"
	"strings"
)

// uriParser passes MongoDB connection strings through after validating the
// scheme and database name - the native driver consumes them as-is.
type uriParser struct{}

func (p *uriParser) ParseURI(uri string) (string, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("invalid URI format: %w", err)
	}
	if parsed.Scheme != "mongodb" && parsed.Scheme != "mongodb+srv" {
		return "", fmt.Errorf("unsupported URI scheme: %s", parsed.Scheme)
	}
	if strings.TrimPrefix(parsed.Path, "/") == "" {
		return "", fmt.Errorf("mongodb URI %q has no database name", uri)
	}
	return uri, nil
}

func (p *uriParser) SupportedSchemes() []string {
	return []string{"mongodb", "mongodb+srv"}
}
