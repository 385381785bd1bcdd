package api

import (
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// requireUser validates the X-User-ID header and returns the catalogue owner
// ID every operation is scoped to. Authentication proper sits in front of
// this server; the header is trusted as-is.
func requireUser(header string) (string, error) {
	userID := strings.TrimSpace(header)
	if userID == "" {
		return "", huma.Error401Unauthorized("X-User-ID header required")
	}
	return userID, nil
}
