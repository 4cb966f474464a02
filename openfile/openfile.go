// Package openfile gives positioned byte access to a file whose
// layout is described by an on-disk header.
//
// Files have a fixed size set at creation, so writes never extend the
// file; partial-sector writes read-modify-write the covered sector.
package openfile

import (
	"io"

	"github.com/ilms49898723/NachOS-MP4/disk"
	"github.com/ilms49898723/NachOS-MP4/filehdr"
	"github.com/ilms49898723/NachOS-MP4/util"
)

var (
	_ io.ReaderAt = (*OpenFile)(nil)
	_ io.WriterAt = (*OpenFile)(nil)
)

type OpenFile struct {
	d       disk.Disk
	hdr     *filehdr.FileHeader
	seekPos int
}

// MkOpenFile opens the file whose header lives at sector.
func MkOpenFile(d disk.Disk, sector int) *OpenFile {
	hdr := new(filehdr.FileHeader)
	hdr.FetchFrom(d, sector)
	util.DPrintf(5, "MkOpenFile: sector %d, %d bytes\n", sector, hdr.NumBytes)
	return &OpenFile{d: d, hdr: hdr}
}

// Header exposes the file's layout to the filesystem.
func (f *OpenFile) Header() *filehdr.FileHeader {
	return f.hdr
}

// Length reports the file size fixed at creation.
func (f *OpenFile) Length() int {
	return f.hdr.NumBytes
}

// Seek positions the cursor used by Read and Write.
func (f *OpenFile) Seek(pos int) {
	f.seekPos = pos
}

// ReadAt reads into p starting at byte offset off. Reads past the end
// of the file are clamped and return io.EOF.
func (f *OpenFile) ReadAt(p []byte, off int64) (int, error) {
	pos := int(off)
	if pos < 0 {
		panic("openfile: negative offset")
	}
	if len(p) == 0 {
		return 0, nil
	}
	if pos >= f.hdr.NumBytes {
		return 0, io.EOF
	}
	numBytes := len(p)
	var err error
	if pos+numBytes > f.hdr.NumBytes {
		numBytes = f.hdr.NumBytes - pos
		err = io.EOF
	}

	firstSector := pos / disk.SectorSize
	lastSector := (pos + numBytes - 1) / disk.SectorSize
	copied := 0
	for s := firstSector; s <= lastSector; s++ {
		blk := f.d.Read(f.hdr.ByteToSector(f.d, s*disk.SectorSize))
		start := 0
		if s == firstSector {
			start = pos % disk.SectorSize
		}
		copied += copy(p[copied:numBytes], blk[start:])
	}
	return copied, err
}

// WriteAt writes p starting at byte offset off. Writes past the fixed
// length are clamped; a clamped write reports io.ErrShortWrite.
func (f *OpenFile) WriteAt(p []byte, off int64) (int, error) {
	pos := int(off)
	if pos < 0 {
		panic("openfile: negative offset")
	}
	if len(p) == 0 {
		return 0, nil
	}
	if pos >= f.hdr.NumBytes {
		return 0, io.ErrShortWrite
	}
	numBytes := len(p)
	var err error
	if pos+numBytes > f.hdr.NumBytes {
		numBytes = f.hdr.NumBytes - pos
		err = io.ErrShortWrite
	}

	firstSector := pos / disk.SectorSize
	lastSector := (pos + numBytes - 1) / disk.SectorSize
	written := 0
	for s := firstSector; s <= lastSector; s++ {
		sector := f.hdr.ByteToSector(f.d, s*disk.SectorSize)
		start := 0
		if s == firstSector {
			start = pos % disk.SectorSize
		}
		end := disk.SectorSize
		if s == lastSector {
			end = (pos+numBytes-1)%disk.SectorSize + 1
		}
		var blk disk.Block
		if end-start == disk.SectorSize {
			blk = make(disk.Block, disk.SectorSize)
		} else {
			// partial sector: keep the bytes around the write
			blk = f.d.Read(sector)
		}
		copy(blk[start:end], p[written:])
		f.d.Write(sector, blk)
		written += end - start
	}
	return written, err
}

// Read fills p from the cursor, advancing it. Returns the byte count,
// 0 at end of file.
func (f *OpenFile) Read(p []byte) int {
	n, _ := f.ReadAt(p, int64(f.seekPos))
	f.seekPos += n
	return n
}

// Write stores p at the cursor, advancing it. Returns the byte count
// actually written.
func (f *OpenFile) Write(p []byte) int {
	n, _ := f.WriteAt(p, int64(f.seekPos))
	f.seekPos += n
	return n
}
