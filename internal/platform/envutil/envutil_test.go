package envutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	t.Setenv("MIZAN_TEST_STR", "  value ")
	assert.Equal(t, "value", String("MIZAN_TEST_STR", "def", nil))
	assert.Equal(t, "def", String("MIZAN_TEST_STR_MISSING", "def", nil))

	t.Setenv("MIZAN_TEST_BLANK", "   ")
	assert.Equal(t, "def", String("MIZAN_TEST_BLANK", "def", nil))
}

func TestInt(t *testing.T) {
	t.Setenv("MIZAN_TEST_INT", "42")
	assert.Equal(t, 42, Int("MIZAN_TEST_INT", 1, nil))

	t.Setenv("MIZAN_TEST_INT_BAD", "forty")
	assert.Equal(t, 1, Int("MIZAN_TEST_INT_BAD", 1, nil))
}

func TestBool(t *testing.T) {
	cases := map[string]bool{"1": true, "yes": true, "ON": true, "0": false, "off": false}
	for raw, want := range cases {
		t.Setenv("MIZAN_TEST_BOOL", raw)
		assert.Equal(t, want, Bool("MIZAN_TEST_BOOL", !want, nil), raw)
	}
	t.Setenv("MIZAN_TEST_BOOL", "maybe")
	assert.True(t, Bool("MIZAN_TEST_BOOL", true, nil))
}

func TestFloat(t *testing.T) {
	t.Setenv("MIZAN_TEST_FLOAT", "0.25")
	assert.InDelta(t, 0.25, Float("MIZAN_TEST_FLOAT", 1, nil), 1e-9)

	t.Setenv("MIZAN_TEST_FLOAT", "quarter")
	assert.InDelta(t, 1.0, Float("MIZAN_TEST_FLOAT", 1, nil), 1e-9)
}

func TestSeconds(t *testing.T) {
	t.Setenv("MIZAN_TEST_SECS", "90")
	assert.Equal(t, 90*time.Second, Seconds("MIZAN_TEST_SECS", time.Minute, nil))

	t.Setenv("MIZAN_TEST_SECS", "-5")
	assert.Equal(t, time.Minute, Seconds("MIZAN_TEST_SECS", time.Minute, nil))
}

func TestList(t *testing.T) {
	t.Setenv("MIZAN_TEST_LIST", "a@x.io, ,b@x.io,")
	assert.Equal(t, []string{"a@x.io", "b@x.io"}, List("MIZAN_TEST_LIST", nil, nil))
	assert.Equal(t, []string{"d"}, List("MIZAN_TEST_LIST_MISSING", []string{"d"}, nil))
}
