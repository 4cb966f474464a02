// Package directory maps names to header sectors inside a
// fixed-capacity on-disk table.
package directory

import (
	"bytes"
	"fmt"
	"io"

	"github.com/tchajed/marshal"

	"github.com/ilms49898723/NachOS-MP4/common"
	"github.com/ilms49898723/NachOS-MP4/util"
)

// DirectoryEntry is one slot of the table. InUse is the canonical
// liveness signal; freed slots keep their bytes.
type DirectoryEntry struct {
	InUse  bool
	IsDir  bool
	Sector int
	Name   [common.FileNameMaxLen]byte
}

// NameString trims the NUL padding off the fixed-width name.
func (e *DirectoryEntry) NameString() string {
	name := e.Name[:]
	if i := bytes.IndexByte(name, 0); i != -1 {
		name = name[:i]
	}
	return string(name)
}

type Directory struct {
	Table []DirectoryEntry
}

// MkDirectory returns an empty table of size slots.
func MkDirectory(size int) *Directory {
	return &Directory{Table: make([]DirectoryEntry, size)}
}

func flagByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// FetchFrom reads the whole table back from the directory file.
func (dir *Directory) FetchFrom(f io.ReaderAt) {
	buf := make([]byte, len(dir.Table)*common.DirEntrySize)
	n, _ := f.ReadAt(buf, 0)
	if n != len(buf) {
		panic("directory: short read from directory file")
	}
	dec := marshal.NewDec(buf)
	for i := range dir.Table {
		e := &dir.Table[i]
		flags := dec.GetBytes(2)
		e.InUse = flags[0] != 0
		e.IsDir = flags[1] != 0
		e.Sector = int(int32(dec.GetInt32()))
		copy(e.Name[:], dec.GetBytes(common.FileNameMaxLen))
	}
}

// WriteBack flushes the whole table to the directory file.
func (dir *Directory) WriteBack(f io.WriterAt) {
	enc := marshal.NewEnc(uint64(len(dir.Table) * common.DirEntrySize))
	for i := range dir.Table {
		e := &dir.Table[i]
		enc.PutBytes([]byte{flagByte(e.InUse), flagByte(e.IsDir)})
		enc.PutInt32(uint32(e.Sector))
		enc.PutBytes(e.Name[:])
	}
	buf := enc.Finish()
	n, err := f.WriteAt(buf, 0)
	if err != nil || n != len(buf) {
		panic("directory: short write to directory file")
	}
}

// truncate limits a lookup or insert name to the on-disk width, the
// same way the fixed-width copy does on Add.
func truncate(name string) string {
	if len(name) > common.FileNameMaxLen {
		return name[:common.FileNameMaxLen]
	}
	return name
}

// FindIndex returns the slot holding name, or -1.
func (dir *Directory) FindIndex(name string) int {
	name = truncate(name)
	for i := range dir.Table {
		if dir.Table[i].InUse && dir.Table[i].NameString() == name {
			return i
		}
	}
	return -1
}

// Find returns the header sector recorded for name, or -1.
func (dir *Directory) Find(name string) int {
	i := dir.FindIndex(name)
	if i == -1 {
		return -1
	}
	return dir.Table[i].Sector
}

func (dir *Directory) add(name string, sector int, isDir bool) bool {
	if dir.FindIndex(name) != -1 {
		return false
	}
	for i := range dir.Table {
		if !dir.Table[i].InUse {
			e := &dir.Table[i]
			e.InUse = true
			e.IsDir = isDir
			e.Sector = sector
			e.Name = [common.FileNameMaxLen]byte{}
			copy(e.Name[:], name)
			util.DPrintf(3, "directory: add %q -> sector %d\n", name, sector)
			return true
		}
	}
	return false // table full
}

// Add places a file entry in the first free slot. Fails if the table
// is full or the name is already present.
func (dir *Directory) Add(name string, sector int) bool {
	return dir.add(name, sector, false)
}

// AddDir places a subdirectory entry in the first free slot.
func (dir *Directory) AddDir(name string, sector int) bool {
	return dir.add(name, sector, true)
}

// Remove clears the in-use flag on the slot holding name.
func (dir *Directory) Remove(name string) bool {
	i := dir.FindIndex(name)
	if i == -1 {
		return false
	}
	dir.Table[i].InUse = false
	return true
}

// List emits the names of the in-use entries, one per line.
func (dir *Directory) List(w io.Writer) {
	for i := range dir.Table {
		if dir.Table[i].InUse {
			fmt.Fprintf(w, "%s\n", dir.Table[i].NameString())
		}
	}
}

// Print dumps the table's bookkeeping to w.
func (dir *Directory) Print(w io.Writer) {
	fmt.Fprintf(w, "Directory contents:\n")
	for i := range dir.Table {
		if dir.Table[i].InUse {
			fmt.Fprintf(w, "Name: %s, Sector: %d\n",
				dir.Table[i].NameString(), dir.Table[i].Sector)
		}
	}
}
