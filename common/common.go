package common

import (
	"github.com/ilms49898723/NachOS-MP4/disk"
)

// On-disk integers (sector numbers, byte counts, header fields) are
// 4 bytes wide.
const DiskIntSize = 4

const (
	// NumDirect is how many sector numbers fit in a file header after
	// its three fixed fields.
	NumDirect = (disk.SectorSize - 3*DiskIntSize) / DiskIntSize

	// MaxFileSize is the capacity of a level-0 header full of level-1
	// headers.
	MaxFileSize = NumDirect * NumDirect * disk.SectorSize
)

// Sectors containing the file headers for the bitmap of free sectors
// and for the root directory. These are placed in well-known sectors
// so they can be located on boot-up.
const (
	FreeMapSector   = 0
	DirectorySector = 1
)

const (
	FileNameMaxLen = 9
	NumDirEntries  = 64

	// DirEntrySize is the serialized size of one directory entry:
	// in-use flag, type flag, sector number, fixed-width name.
	DirEntrySize = 1 + 1 + DiskIntSize + FileNameMaxLen

	DirectoryFileSize = NumDirEntries * DirEntrySize
)

// NumFileDescriptors bounds the per-filesystem descriptor table;
// descriptor 0 is reserved.
const NumFileDescriptors = 20
