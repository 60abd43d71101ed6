package resolver

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// validateParams checks the qr/ad identifiers before any fetch happens.
// It returns the trimmed identifiers, either of which may be empty.
func validateParams(qrID, adID string) (string, string, error) {
	qrID = strings.TrimSpace(qrID)
	adID = strings.TrimSpace(adID)

	if qrID == "" && adID == "" {
		return "", "", ErrMissingIdentifier
	}
	if qrID != "" && !isCanonicalUUID(qrID) {
		return "", "", fmt.Errorf("%w: qr %q", ErrInvalidIdentifier, qrID)
	}
	if adID != "" && !isCanonicalUUID(adID) {
		return "", "", fmt.Errorf("%w: ad %q", ErrInvalidIdentifier, adID)
	}
	return qrID, adID, nil
}

// isCanonicalUUID accepts only the 8-4-4-4-12 textual form,
// case-insensitive. uuid.Parse alone is too permissive: it also takes
// URN and braced variants that never appear in our links.
func isCanonicalUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
