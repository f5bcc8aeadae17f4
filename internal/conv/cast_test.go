package conv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUint64ToInt(t *testing.T) {
	v, err := Uint64ToInt(42)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	_, err = Uint64ToInt(math.MaxUint64)
	assert.Error(t, err)
}

func TestIntToUint64(t *testing.T) {
	v, err := IntToUint64(7)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), v)

	_, err = IntToUint64(-1)
	assert.Error(t, err)
}

func TestUint64ToInt64(t *testing.T) {
	v, err := Uint64ToInt64(math.MaxInt64)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), v)

	_, err = Uint64ToInt64(math.MaxInt64 + 1)
	assert.Error(t, err)
}
