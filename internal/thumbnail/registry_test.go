package thumbnail

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestMap(t *testing.T) {
	m := newRequestMap[int]()

	m.Put(1, "a")
	m.Put(1, "b")
	url, ok := m.Get(1)
	assert.True(t, ok)
	assert.Equal(t, "b", url)
	assert.Equal(t, 1, m.Len())

	assert.False(t, m.CompareAndDelete(1, "a"), "an outdated url must not remove the entry")
	assert.True(t, m.CompareAndDelete(1, "b"))
	assert.False(t, m.CompareAndDelete(1, "b"))
	_, ok = m.Get(1)
	assert.False(t, ok)

	m.Put(2, "x")
	m.Put(3, "y")
	m.Remove(2)
	m.Remove(99)
	assert.Equal(t, 1, m.Len())

	assert.Equal(t, 1, m.Clear())
	assert.Equal(t, 0, m.Clear())
}
