package fingerprint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOfIsDeterministic(t *testing.T) {
	b := []byte("page bytes")
	assert.Equal(t, Of(b), Of(b))
	assert.Len(t, Of(b).String(), 32)
}

func TestOfDistinguishesContent(t *testing.T) {
	inputs := [][]byte{
		[]byte("page one"),
		[]byte("page two"),
		[]byte("page one "),
		{},
		{0x00},
	}

	seen := map[Digest]int{}
	for i, in := range inputs {
		d := Of(in)
		if j, ok := seen[d]; ok {
			t.Fatalf("inputs %d and %d collided", i, j)
		}
		seen[d] = i
	}
}

func TestFileMatchesOf(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page_001.jpg")
	data := []byte("some image payload that is long enough to stream")
	require.NoError(t, os.WriteFile(path, data, 0644))

	d, err := File(path)
	require.NoError(t, err)
	assert.Equal(t, Of(data), d)
}

func TestParseRoundTrip(t *testing.T) {
	d := Of([]byte("x"))
	back, err := Parse(d.String())
	require.NoError(t, err)
	assert.Equal(t, d, back)

	_, err = Parse("abcd")
	assert.Error(t, err)
}

func TestSetRejectsAnyEarlierDigest(t *testing.T) {
	s := NewSet()
	a, b, c := Of([]byte("a")), Of([]byte("b")), Of([]byte("c"))

	assert.True(t, s.Add(a, 1))
	assert.True(t, s.Add(b, 2))
	assert.True(t, s.Add(c, 3))

	// Not just the previous page: page 1 repeats after two other pages.
	assert.False(t, s.Add(a, 4))
	owner, ok := s.Owner(a)
	assert.True(t, ok)
	assert.Equal(t, 1, owner)
	assert.Equal(t, c, s.Last())
	assert.Equal(t, 3, s.Len())
}

func TestSetRemember(t *testing.T) {
	s := NewSet()
	a := Of([]byte("a"))

	s.Remember(a, 1)
	s.Remember(a, 2)
	assert.Equal(t, a, s.Last())

	owner, _ := s.Owner(a)
	assert.Equal(t, 1, owner)
	assert.False(t, s.Add(a, 3))
}
