package auth

import (
	"errors"
	"strings"
)

var (
	// ErrNoAuthorization is returned when the Authorization header is empty.
	ErrNoAuthorization = errors.New("missing authorization")
	// ErrMalformedAuthorization is returned when the header is not "Bearer <token>".
	ErrMalformedAuthorization = errors.New("invalid authorization")
)

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrNoAuthorization
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrMalformedAuthorization
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", ErrMalformedAuthorization
	}
	return token, nil
}
