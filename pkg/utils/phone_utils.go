package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ttacon/libphonenumber"
)

var ErrInvalidPhone = errors.New("invalid phone number")

// NormalizePhone parses a phone number and returns its E.164 digits without the
// leading "+", e.g. "(11) 98765-4321" with region BR -> "5511987654321".
func NormalizePhone(raw, defaultRegion string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidPhone)
	}
	p, err := libphonenumber.Parse(raw, strings.ToUpper(defaultRegion))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPhone, err)
	}
	if !libphonenumber.IsValidNumber(p) {
		return "", fmt.Errorf("%w: %s", ErrInvalidPhone, raw)
	}
	return strings.TrimPrefix(libphonenumber.Format(p, libphonenumber.E164), "+"), nil
}
