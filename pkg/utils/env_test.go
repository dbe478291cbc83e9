package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetenvHelpers(t *testing.T) {
	t.Setenv("SS_TEST_STR", "value")
	t.Setenv("SS_TEST_BOOL", "false")
	t.Setenv("SS_TEST_INT", "nope")
	t.Setenv("SS_TEST_DUR", "15m")
	t.Setenv("SS_TEST_LIST", " a, b ,,c ")

	assert.Equal(t, "value", Getenv("SS_TEST_STR", "x"))
	assert.Equal(t, "x", Getenv("SS_TEST_MISSING", "x"))
	assert.False(t, GetenvBool("SS_TEST_BOOL", true))
	assert.Equal(t, 4, GetenvInt("SS_TEST_INT", 4), "malformed falls back")
	assert.Equal(t, 15*time.Minute, GetenvDuration("SS_TEST_DUR", time.Hour))
	assert.Equal(t, []string{"a", "b", "c"}, GetenvList("SS_TEST_LIST", nil))
}
