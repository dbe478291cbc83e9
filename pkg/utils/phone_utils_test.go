package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	valid := []string{"(11) 98765-4321", "11987654321", "+55 11 98765-4321", "5511987654321"}
	for _, raw := range valid {
		t.Run(raw, func(t *testing.T) {
			got, err := NormalizePhone(raw, "BR")
			require.NoError(t, err)
			assert.Equal(t, "5511987654321", got)
		})
	}
}

func TestNormalizePhoneRejects(t *testing.T) {
	for _, raw := range []string{"", "   ", "abc", "123"} {
		_, err := NormalizePhone(raw, "BR")
		assert.ErrorIs(t, err, ErrInvalidPhone, raw)
	}
}
