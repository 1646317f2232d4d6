package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phonebook/models"
)

func TestHashUnhashRoundTrip(t *testing.T) {
	h := NewHasher(4, 6)

	p, s, err := h.Hash("89991112233")
	require.NoError(t, err)
	assert.Equal(t, 9991, p)
	assert.Equal(t, 112233, s)

	assert.Equal(t, "89991112233", h.Unhash(p, s))
}

func TestHashRejectsWrongLength(t *testing.T) {
	h := NewHasher(4, 6)
	_, _, err := h.Hash("8999111223")
	require.Error(t, err)
	assert.Equal(t, models.KindBadKey, models.KindOf(err))
}

func TestHashRejectsNonDigits(t *testing.T) {
	h := NewHasher(4, 6)
	_, _, err := h.Hash("8999111223X")
	require.Error(t, err)
	assert.Equal(t, models.KindBadKey, models.KindOf(err))
}

func TestUnhashZeroPads(t *testing.T) {
	h := NewHasher(4, 6)
	assert.Equal(t, "80001000002", h.Unhash(1, 2))
}

func TestHashAlternateSplit(t *testing.T) {
	h := NewHasher(2, 8)
	p, s, err := h.Hash("89991112233")
	require.NoError(t, err)
	assert.Equal(t, 99, p)
	assert.Equal(t, 91112233, s)
	assert.Equal(t, "89991112233", h.Unhash(p, s))
}
