package container

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	testData         = []byte("The quick brown fox jumps over the lazy dog")
	testDataSplitted = [][]byte{
		[]byte("T"),
		[]byte("he"),
		[]byte(" qu"),
		[]byte("ick "),
		[]byte("brown"),
		[]byte(" fox j"),
		[]byte("umps ov"),
		[]byte("er the l"),
		[]byte("azy dog"),
	}
)

func TestContainerDataHandling(t *testing.T) {
	t.Parallel()

	// one compartment, read in one go
	c1 := New(bytes.Clone(testData))
	assert.Equal(t, len(testData), c1.Length())
	d1 := make([]byte, len(testData)*2)
	n, emptied := c1.WriteToSlice(d1)
	assert.True(t, emptied)
	d1 = d1[:n]

	// many compartments, read byte by byte
	c2 := New()
	for _, chunk := range testDataSplitted {
		c2.Append(chunk)
	}
	assert.Equal(t, len(testData), c2.Length())
	d2 := make([]byte, len(testData))
	for i := 0; i < len(testData); i++ {
		n, _ := c2.WriteToSlice(d2[i : i+1])
		assert.Equal(t, 1, n)
	}
	assert.Equal(t, 0, c2.Length())

	// many compartments, read in uneven steps
	c3 := New(testDataSplitted...)
	var d3 []byte
	for c3.Length() > 0 {
		buf := make([]byte, 5)
		n, _ := c3.WriteToSlice(buf)
		d3 = append(d3, buf[:n]...)
	}

	compareMany(t, testData, d1, d2, d3)

	// empty container
	n, emptied = New().WriteToSlice(make([]byte, 10))
	assert.Equal(t, 0, n)
	assert.True(t, emptied)
}

func compareMany(t *testing.T, reference []byte, other ...[]byte) {
	t.Helper()

	for i, cmp := range other {
		if !bytes.Equal(reference, cmp) {
			t.Errorf("sample %d does not match reference: sample is '%s'", i+1, string(cmp))
		}
	}
}

func TestWipingContainer(t *testing.T) {
	t.Parallel()

	chunks := make([][]byte, len(testDataSplitted))
	for i, chunk := range testDataSplitted {
		chunks[i] = bytes.Clone(chunk)
	}
	c := NewWiping(chunks...)

	// read wipes consumed chunks only
	buf := make([]byte, 6)
	n, emptied := c.WriteToSlice(buf)
	assert.Equal(t, 6, n)
	assert.False(t, emptied)
	assert.Equal(t, testData[:6], buf)
	assert.Equal(t, []byte{0}, chunks[0])
	assert.Equal(t, []byte{0, 0}, chunks[1])
	assert.Equal(t, []byte{0, 0, 0}, chunks[2])
	assert.Equal(t, []byte("ick "), chunks[3])

	// partial reads wipe the consumed part
	buf = make([]byte, 2)
	_, _ = c.WriteToSlice(buf)
	assert.Equal(t, []byte("ic"), buf)
	assert.Equal(t, []byte{0, 0, 'k', ' '}, chunks[3])

	c.Wipe()
	assert.Equal(t, 0, c.Length())
	for i, chunk := range chunks {
		assert.Equal(t, make([]byte, len(chunk)), chunk, "chunk %d not wiped", i)
	}
}
