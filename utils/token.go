package utils

import "strings"

// TokenSignature returns the signature segment of a three-part signed token,
// i.e. the text after the final '.'. Tokens with fewer than three segments
// have no signature and yield "".
func TokenSignature(token string) string {
	parts := strings.Split(token, ".")
	if len(parts) < 3 {
		return ""
	}
	return parts[len(parts)-1]
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// GetOffset is the row offset of a 1-indexed page. Pages below 1 are the
// caller's responsibility.
func GetOffset(page, itemsPerPage int) int {
	return (page - 1) * itemsPerPage
}
