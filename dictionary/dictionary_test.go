package dictionary

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertAndLookup(t *testing.T) {
	d := New()
	assert.EqualValues(t, 0, d.Insert(""))

	id1 := d.Insert("alpha")
	assert.EqualValues(t, 1, id1)

	id2 := d.Insert("beta")
	assert.EqualValues(t, 2, id2)

	// Re-inserting returns the same id.
	assert.Equal(t, id1, d.Insert("alpha"))

	// Case-insensitive: inserting a different casing resolves to the
	// existing entry rather than creating a new one.
	assert.Equal(t, id1, d.Insert("ALPHA"))
	assert.EqualValues(t, 2, d.Size())
}

func TestLookupAndReverse(t *testing.T) {
	d := New()
	id := d.Insert("gamma")

	got, ok := d.Lookup("GAMMA")
	require.True(t, ok)
	assert.Equal(t, id, got)

	str, ok := d.Reverse(id)
	require.True(t, ok)
	assert.Equal(t, "gamma", str)

	_, ok = d.Lookup("delta")
	assert.False(t, ok)
}

func TestReverseNull(t *testing.T) {
	d := New()
	str, ok := d.Reverse(0)
	require.True(t, ok)
	assert.Equal(t, "", str)
}

func TestWriteReadRoundTrip(t *testing.T) {
	d := New()
	d.Insert("one")
	d.Insert("two")
	d.Insert("three")

	var buf bytes.Buffer
	require.NoError(t, d.Write(&buf))

	out := New()
	require.NoError(t, out.Read(&buf, 3))
	assert.EqualValues(t, 3, out.Size())

	for _, w := range []string{"one", "two", "three"} {
		origID, _ := d.Lookup(w)
		newID, ok := out.Lookup(w)
		require.True(t, ok)
		assert.Equal(t, origID, newID)
	}
}
