package gcp

import (
	"strings"

	"google.golang.org/api/option"
)

// clientOptions accepts inline JSON credentials or a credentials file path.
// Empty credentials fall back to application default credentials.
func clientOptions(credentials string) []option.ClientOption {
	credentials = strings.TrimSpace(credentials)
	switch {
	case credentials == "":
		return nil
	case strings.HasPrefix(credentials, "{"):
		return []option.ClientOption{option.WithCredentialsJSON([]byte(credentials))}
	default:
		return []option.ClientOption{option.WithCredentialsFile(credentials)}
	}
}
