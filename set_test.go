package pyoframe

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSetRejectsDuplicates(t *testing.T) {
	assert := require.New(t)

	s, err := NewSet("city", "ams", "rot", "utr")
	assert.NoError(err)
	assert.Equal(3, s.Len())
	assert.Equal([]string{"city"}, s.Dims())

	_, err = NewSet("city", "ams", "ams")
	assert.Error(err)
}

func TestNewSetTuplesValidation(t *testing.T) {
	assert := require.New(t)

	_, err := NewSetTuples([]string{"i", "i"}, nil)
	assert.Error(err)

	_, err = NewSetTuples([]string{"i", ""}, nil)
	assert.Error(err)

	_, err = NewSetTuples([]string{"i", "j"}, [][]any{{1}})
	assert.Error(err)

	s, err := NewSetTuples([]string{"i", "j"}, [][]any{{1, "a"}, {2, "b"}})
	assert.NoError(err)
	assert.Equal([][]any{{1, "a"}, {2, "b"}}, s.Tuples())
}

func TestMustSetPanics(t *testing.T) {
	require.Panics(t, func() { MustSet("i", 1, 1) })
}

func TestSetCross(t *testing.T) {
	assert := require.New(t)

	cities := MustSet("city", "ams", "rot")
	years := MustSet("year", 2024, 2025)

	s, err := cities.Cross(years)
	assert.NoError(err)
	assert.Equal([]string{"city", "year"}, s.Dims())
	assert.Equal(4, s.Len())
	assert.Equal([]any{"ams", 2024}, s.Tuples()[0])
	assert.Equal([]any{"rot", 2025}, s.Tuples()[3])

	_, err = cities.Cross(cities)
	assert.Error(err)
}
