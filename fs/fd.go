package fs

import (
	"github.com/ilms49898723/NachOS-MP4/common"
	"github.com/ilms49898723/NachOS-MP4/util"
)

// The descriptor table aliases open files to small integers the way
// user programs expect. Descriptor 0 is reserved and never handed
// out; -1 signals failure.

func validFd(id int) bool {
	return id > 0 && id < common.NumFileDescriptors
}

// OpenFd opens the file at path and parks its handle in the lowest
// free slot. Returns the slot index, or -1 if the open failed or the
// table is full.
func (fs *FileSystem) OpenFd(path string) int {
	fp := fs.Open(path)
	if fp == nil {
		return -1
	}
	for i := 1; i < common.NumFileDescriptors; i++ {
		if fs.fdTable[i] == nil {
			fs.fdTable[i] = fp
			util.DPrintf(2, "OpenFd: %s -> %d\n", path, i)
			return i
		}
	}
	return -1
}

// WriteFd writes p at descriptor id's cursor, returning the byte
// count, or -1 on an empty slot.
func (fs *FileSystem) WriteFd(p []byte, id int) int {
	if !validFd(id) || fs.fdTable[id] == nil {
		return -1
	}
	return fs.fdTable[id].Write(p)
}

// ReadFd reads into p from descriptor id's cursor, returning the byte
// count, or -1 on an empty slot.
func (fs *FileSystem) ReadFd(p []byte, id int) int {
	if !validFd(id) || fs.fdTable[id] == nil {
		return -1
	}
	return fs.fdTable[id].Read(p)
}

// CloseFd releases descriptor id. Returns 1 when a live handle was
// closed and 0 otherwise, so closing twice is harmless.
func (fs *FileSystem) CloseFd(id int) int {
	if !validFd(id) || fs.fdTable[id] == nil {
		return 0
	}
	fs.fdTable[id] = nil
	return 1
}
