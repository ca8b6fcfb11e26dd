package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseHeaders(t *testing.T) {
	assert.Nil(t, ParseHeaders(""))
	assert.Nil(t, ParseHeaders("broken, =x, y="))
	assert.Equal(t, map[string]string{"api-key": "abc", "tenant": "mizan"}, ParseHeaders(" api-key=abc , tenant=mizan"))
}

func TestClampRatio(t *testing.T) {
	assert.Equal(t, 0.0, clampRatio(-1))
	assert.Equal(t, 1.0, clampRatio(3))
	assert.Equal(t, 0.25, clampRatio(0.25))
}

func TestTracerWithoutProvider(t *testing.T) {
	assert.NotNil(t, Tracer())
}
