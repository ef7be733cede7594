package optional

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptional(t *testing.T) {
	some := Some("A")
	none := None[string]()

	require.True(t, some.IsSome())
	require.False(t, some.IsNone())
	require.True(t, none.IsNone())

	v, ok := some.Get()
	assert.True(t, ok)
	assert.Equal(t, "A", v)

	v, ok = none.Get()
	assert.False(t, ok)
	assert.Empty(t, v)

	assert.Equal(t, "A", some.Unwrap())
	assert.Equal(t, "B", none.ValueOr("B"))
	assert.Equal(t, "A", some.ValueOr("B"))

	assert.Equal(t, "Some(A)", some.String())
	assert.Equal(t, "None", none.String())

	require.Panics(t, func() { none.Unwrap() })
	require.Panics(t, func() { none.Expect("queue must not be empty") })
}

func TestOptionalZeroValueIsNone(t *testing.T) {
	var opt Optional[int]
	require.True(t, opt.IsNone())
	require.Equal(t, None[int](), opt)
}
