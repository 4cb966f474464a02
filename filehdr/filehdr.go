// Package filehdr manages the one-sector headers that record a file's
// sector layout.
//
// A header at LevelData lists data sectors directly and addresses up
// to NumDirect sectors of content. A header at LevelRoot lists the
// sectors of LevelData headers instead, squaring the reachable size.
// The serialized form fills its sector exactly.
package filehdr

import (
	"fmt"
	"io"

	"github.com/tchajed/marshal"

	"github.com/ilms49898723/NachOS-MP4/bitmap"
	"github.com/ilms49898723/NachOS-MP4/common"
	"github.com/ilms49898723/NachOS-MP4/disk"
	"github.com/ilms49898723/NachOS-MP4/util"
)

const (
	// LevelRoot headers hold sectors of LevelData headers.
	LevelRoot = 0
	// LevelData headers hold data sectors.
	LevelData = 1
)

// Level1MaxBytes is the largest file a single LevelData header covers.
const Level1MaxBytes = common.NumDirect * disk.SectorSize

type FileHeader struct {
	NumBytes    int // file length in bytes; meaningful on LevelData headers
	NumSectors  int // populated entries in DataSectors
	Level       int
	DataSectors [common.NumDirect]int
}

func MkFileHeader(level int) *FileHeader {
	return &FileHeader{Level: level}
}

// Allocate grabs fileSize bytes worth of data sectors from bm, lowest
// free first. On failure the header is left unusable and the caller
// abandons bm by not writing it back.
//
// Only LevelData headers allocate through this path; LevelRoot headers
// are populated by the filesystem.
func (hdr *FileHeader) Allocate(bm *bitmap.Bitmap, fileSize int) bool {
	if hdr.Level != LevelData {
		panic("filehdr: Allocate on a root header")
	}
	numSectors := util.DivRoundUp(fileSize, disk.SectorSize)
	if numSectors > common.NumDirect {
		return false
	}
	for i := 0; i < numSectors; i++ {
		sector := bm.FindAndSet()
		if sector == -1 {
			return false
		}
		hdr.DataSectors[i] = sector
	}
	hdr.NumBytes = fileSize
	hdr.NumSectors = numSectors
	util.DPrintf(4, "Allocate: %d bytes in %d sectors\n", fileSize, numSectors)
	return true
}

// Deallocate clears the bits for every sector this header lists. The
// header's own sector is not cleared here; for a LevelRoot header the
// listed sectors are its children's header sectors, so deallocating
// the root completes the children's cleanup.
func (hdr *FileHeader) Deallocate(bm *bitmap.Bitmap) {
	for i := 0; i < hdr.NumSectors; i++ {
		bm.Clear(hdr.DataSectors[i])
	}
}

// FetchFrom reads the header from its sector.
func (hdr *FileHeader) FetchFrom(d disk.Disk, sector int) {
	dec := marshal.NewDec(d.Read(sector))
	hdr.NumBytes = int(int32(dec.GetInt32()))
	hdr.NumSectors = int(int32(dec.GetInt32()))
	hdr.Level = int(int32(dec.GetInt32()))
	for i := 0; i < common.NumDirect; i++ {
		hdr.DataSectors[i] = int(int32(dec.GetInt32()))
	}
}

// WriteBack flushes the header to its sector.
func (hdr *FileHeader) WriteBack(d disk.Disk, sector int) {
	enc := marshal.NewEnc(disk.SectorSize)
	enc.PutInt32(uint32(hdr.NumBytes))
	enc.PutInt32(uint32(hdr.NumSectors))
	enc.PutInt32(uint32(hdr.Level))
	for i := 0; i < common.NumDirect; i++ {
		enc.PutInt32(uint32(hdr.DataSectors[i]))
	}
	d.Write(sector, enc.Finish())
}

// ByteToSector translates a byte offset within the file to the data
// sector holding it, loading one LevelData header from disk when hdr
// is a root.
func (hdr *FileHeader) ByteToSector(d disk.Disk, offset int) int {
	if hdr.Level == LevelData {
		return hdr.DataSectors[offset/disk.SectorSize]
	}
	child := new(FileHeader)
	child.FetchFrom(d, hdr.DataSectors[offset/Level1MaxBytes])
	return child.ByteToSector(d, offset%Level1MaxBytes)
}

// Print dumps the header's bookkeeping to w.
func (hdr *FileHeader) Print(w io.Writer) {
	fmt.Fprintf(w, "FileHeader contents. File size: %d. Level: %d. File blocks:\n",
		hdr.NumBytes, hdr.Level)
	for i := 0; i < hdr.NumSectors; i++ {
		fmt.Fprintf(w, "%d ", hdr.DataSectors[i])
	}
	fmt.Fprintf(w, "\n")
}
