// Package bitmap tracks free sectors as a flat bit array, persisted
// through the free-map file.
package bitmap

import (
	"fmt"
	"io"

	"github.com/ilms49898723/NachOS-MP4/util"
)

const bitsPerByte = 8

// Bitmap is the in-memory working copy of the free-sector map. It is
// authoritative for the duration of one operation; only WriteBack
// publishes it.
type Bitmap struct {
	numBits int
	mp      []byte
}

// MkBitmap returns a bitmap of numBits clear bits.
func MkBitmap(numBits int) *Bitmap {
	return &Bitmap{
		numBits: numBits,
		mp:      make([]byte, util.DivRoundUp(numBits, bitsPerByte)),
	}
}

// MkBitmapFrom reads the serialized map back from its file.
func MkBitmapFrom(f io.ReaderAt, numBits int) *Bitmap {
	bm := MkBitmap(numBits)
	n, _ := f.ReadAt(bm.mp, 0)
	if n != len(bm.mp) {
		panic("bitmap: short read from free-map file")
	}
	return bm
}

func (bm *Bitmap) checkBit(which int) {
	if which < 0 || which >= bm.numBits {
		panic(fmt.Errorf("bitmap: bit %d out of range [0, %d)", which, bm.numBits))
	}
}

// Mark sets bit which. Idempotent.
func (bm *Bitmap) Mark(which int) {
	bm.checkBit(which)
	bm.mp[which/bitsPerByte] |= 1 << (which % bitsPerByte)
}

// Clear clears bit which. Idempotent.
func (bm *Bitmap) Clear(which int) {
	bm.checkBit(which)
	bm.mp[which/bitsPerByte] &= ^(1 << (which % bitsPerByte))
}

// Test reports whether bit which is set.
func (bm *Bitmap) Test(which int) bool {
	bm.checkBit(which)
	return bm.mp[which/bitsPerByte]&(1<<(which%bitsPerByte)) != 0
}

// FindAndSet scans for the lowest clear bit, sets it, and returns its
// index, or -1 if every bit is set.
func (bm *Bitmap) FindAndSet() int {
	for which := 0; which < bm.numBits; which++ {
		if !bm.Test(which) {
			bm.Mark(which)
			util.DPrintf(8, "FindAndSet: %d\n", which)
			return which
		}
	}
	return -1
}

// NumClear counts the clear bits.
func (bm *Bitmap) NumClear() int {
	count := 0
	for which := 0; which < bm.numBits; which++ {
		if !bm.Test(which) {
			count++
		}
	}
	return count
}

// WriteBack flushes the serialized map to its file.
func (bm *Bitmap) WriteBack(f io.WriterAt) {
	n, err := f.WriteAt(bm.mp, 0)
	if err != nil || n != len(bm.mp) {
		panic("bitmap: short write to free-map file")
	}
}

// Print dumps the set bits to w.
func (bm *Bitmap) Print(w io.Writer) {
	fmt.Fprintf(w, "Bitmap set:\n")
	for which := 0; which < bm.numBits; which++ {
		if bm.Test(which) {
			fmt.Fprintf(w, "%d, ", which)
		}
	}
	fmt.Fprintf(w, "\n")
}
