package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transit-demand/internal/geom"
)

func TestParsePoint(t *testing.T) {
	p, err := parsePoint(" 12.5, -3 ")
	require.NoError(t, err)
	assert.Equal(t, geom.Point{X: 12.5, Y: -3}, p)

	for _, bad := range []string{"", "1", "a,2", "1,b"} {
		_, err := parsePoint(bad)
		assert.Error(t, err, bad)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", firstNonEmpty("", "b", "c"))
	assert.Empty(t, firstNonEmpty("", ""))
}
