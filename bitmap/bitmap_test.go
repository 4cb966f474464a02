package bitmap

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkClearTest(t *testing.T) {
	bm := MkBitmap(32)
	assert.False(t, bm.Test(5))

	bm.Mark(5)
	assert.True(t, bm.Test(5))
	bm.Mark(5)
	assert.True(t, bm.Test(5), "Mark is idempotent")

	bm.Clear(5)
	assert.False(t, bm.Test(5))
	bm.Clear(5)
	assert.False(t, bm.Test(5), "Clear is idempotent")
}

func TestFindAndSetLowestFirst(t *testing.T) {
	assert := assert.New(t)
	bm := MkBitmap(16)

	for want := 0; want < 16; want++ {
		assert.Equal(want, bm.FindAndSet(), "scan picks the lowest clear bit")
	}
	assert.Equal(-1, bm.FindAndSet(), "full map reports -1")

	bm.Clear(7)
	assert.Equal(7, bm.FindAndSet(), "a freed bit is the next pick")
}

func TestNumClear(t *testing.T) {
	bm := MkBitmap(24)
	assert.Equal(t, 24, bm.NumClear())
	bm.Mark(0)
	bm.Mark(23)
	assert.Equal(t, 22, bm.NumClear())
}

func TestBitRangeChecked(t *testing.T) {
	bm := MkBitmap(8)
	assert.Panics(t, func() { bm.Test(8) })
	assert.Panics(t, func() { bm.Mark(-1) })
}

type memFile struct {
	data []byte
}

func (f *memFile) ReadAt(p []byte, off int64) (int, error) {
	return copy(p, f.data[off:]), nil
}

func (f *memFile) WriteAt(p []byte, off int64) (int, error) {
	return copy(f.data[off:], p), nil
}

func TestWriteBackLoad(t *testing.T) {
	f := &memFile{data: make([]byte, 4)}
	bm := MkBitmap(32)
	bm.Mark(0)
	bm.Mark(9)
	bm.Mark(31)
	bm.WriteBack(f)

	loaded := MkBitmapFrom(f, 32)
	for which := 0; which < 32; which++ {
		assert.Equal(t, bm.Test(which), loaded.Test(which))
	}
}

func TestPrint(t *testing.T) {
	bm := MkBitmap(8)
	bm.Mark(1)
	bm.Mark(3)
	var buf bytes.Buffer
	bm.Print(&buf)
	assert.Equal(t, "Bitmap set:\n1, 3, \n", buf.String())
}
