package secrets

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// ResolveCredential returns the credential document from either its raw form
// or its base64 form. The raw form wins when both are set. An empty result
// with a nil error means the credential is not configured.
func ResolveCredential(raw, encoded string) ([]byte, error) {
	if raw = strings.TrimSpace(raw); raw != "" {
		return []byte(raw), nil
	}
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, nil
	}

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		// Values pasted from some consoles drop padding.
		decoded, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(encoded, "="))
		if err != nil {
			return nil, fmt.Errorf("decode base64 credential: %w", err)
		}
	}
	return decoded, nil
}
