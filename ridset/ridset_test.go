package ridset

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRidSet(t *testing.T) {
	rs := NewRidSet()
	require.NotNil(t, rs)
	assert.Equal(t, 0, rs.Len())
}

func TestSortSmall(t *testing.T) {
	rs := NewRidSetFromSlice([]Rid{{1, 5}, {1, 2}, {0, 9}})
	require.Equal(t, 3, rs.Len())

	r0, err := rs.At(0)
	require.NoError(t, err)
	assert.Equal(t, Rid{0, 9}, r0)

	r1, err := rs.At(1)
	require.NoError(t, err)
	assert.Equal(t, Rid{1, 2}, r1)

	r2, err := rs.At(2)
	require.NoError(t, err)
	assert.Equal(t, Rid{1, 5}, r2)
}

func TestSortLarge(t *testing.T) {
	rids := make([]Rid, 0, 64)
	for i := 64; i > 0; i-- {
		rids = append(rids, Rid{Run: 0, Event: uint32(i)})
	}
	rs := NewRidSetFromSlice(rids)
	require.Equal(t, 64, rs.Len())
	for i := 0; i < rs.Len()-1; i++ {
		a, _ := rs.At(i)
		b, _ := rs.At(i + 1)
		assert.True(t, a.Less(b) || a == b)
	}
}

func TestAtOutOfRange(t *testing.T) {
	rs := NewRidSet()
	_, err := rs.At(0)
	assert.Error(t, err)
}

func TestWriteRead(t *testing.T) {
	rs := NewRidSetFromSlice([]Rid{{0, 1}, {0, 2}, {1, 0}})

	var buf bytes.Buffer
	require.NoError(t, rs.Write(&buf))
	assert.Equal(t, 24, buf.Len())

	out := NewRidSet()
	require.NoError(t, out.Read(&buf, 3))
	assert.Equal(t, rs.Slice(), out.Slice())
}

func TestPermute(t *testing.T) {
	rs := NewRidSetFromSlice([]Rid{{0, 0}, {0, 1}, {0, 2}})
	permuted, err := rs.Permute([]int{2, 0, 1})
	require.NoError(t, err)
	assert.Equal(t, []Rid{{0, 2}, {0, 0}, {0, 1}}, permuted.Slice())

	_, err = rs.Permute([]int{0, 1})
	assert.Error(t, err)
}
