package usecase

import (
	"crypto/rand"
	"fmt"
	"io"
	"regexp"

	"activation-gate/internal/domain"
)

var prefixPattern = regexp.MustCompile(`^[A-Za-z0-9]{1,16}$`)

// generateActivationCode creates a random, human-readable code.
// Format: [PREFIX-]XXXX-XXXX-XXXX
func generateActivationCode(prefix string) (string, error) {
	// Avoids ambiguous characters like O/0, I/1, l.
	const chars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	const codeLength = 12

	buffer := make([]byte, codeLength)
	if _, err := io.ReadFull(rand.Reader, buffer); err != nil {
		return "", err
	}
	for i := 0; i < codeLength; i++ {
		buffer[i] = chars[int(buffer[i])%len(chars)]
	}

	code := string(buffer[0:4]) + "-" + string(buffer[4:8]) + "-" + string(buffer[8:12])
	if prefix != "" {
		code = prefix + "-" + code
	}
	return code, nil
}

func validatePrefix(prefix string) error {
	if prefix == "" || prefixPattern.MatchString(prefix) {
		return nil
	}
	return fmt.Errorf("%w: prefix must be 1-16 letters or digits", domain.ErrInvalidInput)
}
