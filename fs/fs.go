// Package fs maps slash-delimited path names onto files and nested
// directories stored on a sector device.
//
// Each file has a header in a sector of its own, a set of data
// sectors, and an entry in some directory. The free-sector bitmap and
// the root directory are themselves regular files whose headers live
// at fixed sectors, and both are kept open for the life of the
// filesystem.
//
// Operations that mutate the bitmap or a directory work on in-memory
// copies and flush them only once the whole operation has succeeded;
// a failed operation leaves the disk untouched.
package fs

import (
	"fmt"
	"io"
	"os"

	"github.com/ilms49898723/NachOS-MP4/bitmap"
	"github.com/ilms49898723/NachOS-MP4/common"
	"github.com/ilms49898723/NachOS-MP4/directory"
	"github.com/ilms49898723/NachOS-MP4/disk"
	"github.com/ilms49898723/NachOS-MP4/filehdr"
	"github.com/ilms49898723/NachOS-MP4/openfile"
	"github.com/ilms49898723/NachOS-MP4/util"
)

type FileSystem struct {
	d             disk.Disk
	freeMapFile   *openfile.OpenFile
	directoryFile *openfile.OpenFile
	fdTable       [common.NumFileDescriptors]*openfile.OpenFile
	out           io.Writer
}

// FreeMapFileSize is the serialized bitmap length for a disk of
// numSectors sectors.
func FreeMapFileSize(numSectors int) int {
	return util.DivRoundUp(numSectors, 8)
}

// MkFileSystem mounts the filesystem on d. With format set, the disk
// is assumed empty and gets a fresh bitmap and root directory at the
// well-known sectors; otherwise the two files are just opened.
func MkFileSystem(d disk.Disk, format bool) *FileSystem {
	fs := &FileSystem{d: d, out: os.Stdout}
	util.DPrintf(1, "Initializing the file system.\n")

	if format {
		freeMap := bitmap.MkBitmap(d.Size())
		dir := directory.MkDirectory(common.NumDirEntries)
		mapHdr := filehdr.MkFileHeader(filehdr.LevelData)
		dirHdr := filehdr.MkFileHeader(filehdr.LevelData)

		util.DPrintf(1, "Formatting the file system.\n")

		// the header sectors themselves come first, so nothing else
		// can grab them
		freeMap.Mark(common.FreeMapSector)
		freeMap.Mark(common.DirectorySector)

		if !mapHdr.Allocate(freeMap, FreeMapFileSize(d.Size())) {
			panic("fs: no room for the free map")
		}
		if !dirHdr.Allocate(freeMap, common.DirectoryFileSize) {
			panic("fs: no room for the root directory")
		}

		// headers must be on disk before the files can be opened
		mapHdr.WriteBack(d, common.FreeMapSector)
		dirHdr.WriteBack(d, common.DirectorySector)

		fs.freeMapFile = openfile.MkOpenFile(d, common.FreeMapSector)
		fs.directoryFile = openfile.MkOpenFile(d, common.DirectorySector)

		// now the initial contents: the bitmap already accounts for
		// both files, the directory starts empty
		freeMap.WriteBack(fs.freeMapFile)
		dir.WriteBack(fs.directoryFile)
	} else {
		fs.freeMapFile = openfile.MkOpenFile(d, common.FreeMapSector)
		fs.directoryFile = openfile.MkOpenFile(d, common.DirectorySector)
	}
	return fs
}

// SetOutput redirects listing output and diagnostics, which default
// to stdout.
func (fs *FileSystem) SetOutput(w io.Writer) {
	fs.out = w
}

// Create makes a file of initialSize bytes at path. Files cannot grow,
// so the size is final.
//
// The root header is always built at LevelRoot, with one LevelData
// child per NumDirect*SectorSize span of content. Create fails when
// the file exists, the parent is missing or full, or the disk is out
// of sectors; a failed create writes nothing back.
func (fs *FileSystem) Create(path string, initialSize int) bool {
	util.DPrintf(1, "Creating file %s size %d\n", path, initialSize)

	numLevel1 := util.DivRoundUp(initialSize, filehdr.Level1MaxBytes)
	if numLevel1 > common.NumDirect {
		return false // over MaxFileSize
	}

	parent, name := SplitPath(path)
	dirFile := fs.OpenDir(parent)
	if dirFile == nil {
		return false
	}
	dir := directory.MkDirectory(common.NumDirEntries)
	dir.FetchFrom(dirFile)
	if dir.Find(name) != -1 {
		return false // file is already in directory
	}

	freeMap := bitmap.MkBitmapFrom(fs.freeMapFile, fs.d.Size())
	sector := freeMap.FindAndSet() // sector to hold the root header
	if sector == -1 {
		return false
	}
	level1Sectors := make([]int, numLevel1)
	for i := range level1Sectors {
		level1Sectors[i] = freeMap.FindAndSet()
		if level1Sectors[i] == -1 {
			return false // no free sector for a child header
		}
	}

	if !dir.Add(name, sector) {
		return false // no space in directory
	}

	hdr := filehdr.MkFileHeader(filehdr.LevelRoot)
	hdr.NumBytes = initialSize
	hdr.NumSectors = numLevel1
	level1Hdrs := make([]*filehdr.FileHeader, numLevel1)

	remain := initialSize
	for i := range level1Hdrs {
		toRequest := util.Min(remain, filehdr.Level1MaxBytes)
		remain -= toRequest
		hdr.DataSectors[i] = level1Sectors[i]
		level1Hdrs[i] = filehdr.MkFileHeader(filehdr.LevelData)
		if !level1Hdrs[i].Allocate(freeMap, toRequest) {
			return false // out of data sectors; abandon the working copies
		}
	}

	// everything worked, flush all changes back to disk
	hdr.WriteBack(fs.d, sector)
	for i := range level1Hdrs {
		level1Hdrs[i].WriteBack(fs.d, level1Sectors[i])
	}
	dir.WriteBack(dirFile)
	freeMap.WriteBack(fs.freeMapFile)
	return true
}

// CreateDirectory makes an empty subdirectory called name under the
// directory at parent.
func (fs *FileSystem) CreateDirectory(name string, parent string) bool {
	util.DPrintf(1, "Creating directory %s under %s\n", name, parent)

	dirFile := fs.OpenDir(parent)
	if dirFile == nil {
		return false
	}
	dir := directory.MkDirectory(common.NumDirEntries)
	dir.FetchFrom(dirFile)
	if dir.Find(name) != -1 {
		return false
	}

	freeMap := bitmap.MkBitmapFrom(fs.freeMapFile, fs.d.Size())
	sector := freeMap.FindAndSet()
	if sector == -1 {
		return false
	}
	if !dir.AddDir(name, sector) {
		return false
	}

	dirHdr := filehdr.MkFileHeader(filehdr.LevelData)
	if !dirHdr.Allocate(freeMap, common.DirectoryFileSize) {
		return false
	}

	dirHdr.WriteBack(fs.d, sector)
	dir.WriteBack(dirFile)
	freeMap.WriteBack(fs.freeMapFile)

	// initialize the new directory's table now that its header is live
	newDir := directory.MkDirectory(common.NumDirEntries)
	newDir.WriteBack(openfile.MkOpenFile(fs.d, sector))
	return true
}

// Open returns a handle on the file at path, or nil if any path
// component is missing.
func (fs *FileSystem) Open(path string) *openfile.OpenFile {
	util.DPrintf(1, "Opening file %s\n", path)

	parent, name := SplitPath(path)
	dirFile := fs.OpenDir(parent)
	if dirFile == nil {
		return nil
	}
	dir := directory.MkDirectory(common.NumDirEntries)
	dir.FetchFrom(dirFile)

	sector := dir.Find(name)
	if sector == -1 {
		return nil
	}
	return openfile.MkOpenFile(fs.d, sector)
}

// Remove deletes the file or directory at path, releasing every
// sector it transitively owns. A non-empty directory is only removed
// when recursive is set.
func (fs *FileSystem) Remove(path string, recursive bool) bool {
	util.DPrintf(1, "Remove %s\n", path)

	parent, name := SplitPath(path)
	dirFile := fs.OpenDir(parent)
	if dirFile == nil {
		fmt.Fprintf(fs.out, "Directory %s not found!\n", parent)
		return false
	}
	dir := directory.MkDirectory(common.NumDirEntries)
	dir.FetchFrom(dirFile)

	sector := dir.Find(name)
	tableIdx := dir.FindIndex(name)
	if sector == -1 {
		fmt.Fprintf(fs.out, "File %s not found!\n", name)
		return false
	}

	fileHdr := new(filehdr.FileHeader)
	fileHdr.FetchFrom(fs.d, sector)

	if dir.Table[tableIdx].IsDir {
		// a directory: its children go first
		nextDirFile := fs.OpenDir(path)
		nextDir := directory.MkDirectory(common.NumDirEntries)
		nextDir.FetchFrom(nextDirFile)

		totalCount := 0
		for i := range nextDir.Table {
			if nextDir.Table[i].InUse {
				totalCount++
			}
		}
		if !recursive && totalCount != 0 {
			fmt.Fprintf(fs.out, "%s: directory not empty!\n", name)
			return false
		}
		for i := range nextDir.Table {
			if nextDir.Table[i].InUse {
				fs.Remove(JoinPath(path, nextDir.Table[i].NameString()), recursive)
			}
		}
	}

	// load the bitmap only now: the recursive removals above flushed
	// their own deallocations, and this copy has to see them
	freeMap := bitmap.MkBitmapFrom(fs.freeMapFile, fs.d.Size())

	if fileHdr.Level == filehdr.LevelRoot {
		for i := 0; i < fileHdr.NumSectors; i++ {
			level1Hdr := new(filehdr.FileHeader)
			level1Hdr.FetchFrom(fs.d, fileHdr.DataSectors[i])
			level1Hdr.Deallocate(freeMap)
			// the child header sectors are the root's DataSectors, so
			// the root's Deallocate below frees them; clearing them
			// here too would double-clear
		}
	}

	fileHdr.Deallocate(freeMap) // remove data (or child header) sectors
	freeMap.Clear(sector)       // remove the header sector itself
	dir.Remove(name)

	freeMap.WriteBack(fs.freeMapFile) // flush to disk
	dir.WriteBack(dirFile)            // flush to disk
	return true
}

// List emits the names in the directory at path, one per line.
func (fs *FileSystem) List(path string) {
	dirFile := fs.OpenDir(path)
	if dirFile == nil {
		return
	}
	dir := directory.MkDirectory(common.NumDirEntries)
	dir.FetchFrom(dirFile)
	dir.List(fs.out)
}

// RecursiveList renders the tree under path with box-drawing
// connectors; directory names come out bright blue with a trailing
// slash.
func (fs *FileSystem) RecursiveList(path string) {
	fs.recursiveList(path, 4, make([]bool, 0, common.NumDirEntries))
}

func (fs *FileSystem) recursiveList(path string, tab int, isLast []bool) {
	dirFile := fs.OpenDir(path)
	if dirFile == nil {
		return
	}
	dir := directory.MkDirectory(common.NumDirEntries)
	dir.FetchFrom(dirFile)

	totalCount := 0
	for i := range dir.Table {
		if dir.Table[i].InUse {
			totalCount++
		}
	}

	for i := range dir.Table {
		if !dir.Table[i].InUse {
			continue
		}
		totalCount--

		for j := 0; j < tab/4-1; j++ {
			if !isLast[j] {
				fmt.Fprint(fs.out, "│   ")
			} else {
				fmt.Fprint(fs.out, "    ")
			}
		}
		if totalCount != 0 {
			fmt.Fprint(fs.out, "├──")
		} else {
			fmt.Fprint(fs.out, "└──")
		}

		name := dir.Table[i].NameString()
		if dir.Table[i].IsDir {
			fmt.Fprint(fs.out, "\x1B[1;34m", name, "/")
		} else {
			fmt.Fprint(fs.out, name)
		}
		fmt.Fprint(fs.out, "\x1B[0m\n")

		if dir.Table[i].IsDir {
			fs.recursiveList(JoinPath(path, name), tab+4, append(isLast, totalCount == 0))
		}
	}
}

// Print dumps the whole filesystem's bookkeeping: both fixed headers,
// the set bits of the free map, and the root directory table.
func (fs *FileSystem) Print() {
	bitHdr := new(filehdr.FileHeader)
	dirHdr := new(filehdr.FileHeader)

	fmt.Fprintf(fs.out, "Bit map file header:\n")
	bitHdr.FetchFrom(fs.d, common.FreeMapSector)
	bitHdr.Print(fs.out)

	fmt.Fprintf(fs.out, "Directory file header:\n")
	dirHdr.FetchFrom(fs.d, common.DirectorySector)
	dirHdr.Print(fs.out)

	freeMap := bitmap.MkBitmapFrom(fs.freeMapFile, fs.d.Size())
	freeMap.Print(fs.out)

	dir := directory.MkDirectory(common.NumDirEntries)
	dir.FetchFrom(fs.directoryFile)
	dir.Print(fs.out)
}
