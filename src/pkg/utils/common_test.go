package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMust(t *testing.T) {
	assert.Equal(t, 3, Must(3, nil))
	require.Panics(t, func() { Must(0, errors.New("boom")) })
}

func TestPairDestruct(t *testing.T) {
	first, second := Pair[string, int]{First: "enqueue", Second: 2}.Destruct()
	assert.Equal(t, "enqueue", first)
	assert.Equal(t, 2, second)
}
