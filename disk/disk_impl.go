package disk

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

var _ Disk = fileDisk{}

type fileDisk struct {
	fd         int
	numSectors int
}

// NewFileDisk opens (creating if necessary) an image file holding
// numSectors sectors.
func NewFileDisk(path string, numSectors int) (Disk, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT, 0666)
	if err != nil {
		return nil, err
	}
	var stat unix.Stat_t
	err = unix.Fstat(fd, &stat)
	if err != nil {
		return nil, err
	}
	if (stat.Mode&unix.S_IFREG) != 0 && stat.Size != int64(numSectors*SectorSize) {
		err = unix.Ftruncate(fd, int64(numSectors*SectorSize))
		if err != nil {
			return nil, err
		}
	}
	return fileDisk{fd: fd, numSectors: numSectors}, nil
}

func (d fileDisk) ReadTo(a int, buf Block) {
	if len(buf) != SectorSize {
		panic("buffer is not sector-sized")
	}
	if a < 0 || a >= d.numSectors {
		panic(fmt.Errorf("out-of-bounds read at %v", a))
	}
	_, err := unix.Pread(d.fd, buf, int64(a*SectorSize))
	if err != nil {
		panic("read failed: " + err.Error())
	}
}

func (d fileDisk) Read(a int) Block {
	buf := make(Block, SectorSize)
	d.ReadTo(a, buf)
	return buf
}

func (d fileDisk) Write(a int, v Block) {
	if len(v) != SectorSize {
		panic(fmt.Errorf("v is not sector-sized (%d bytes)", len(v)))
	}
	if a < 0 || a >= d.numSectors {
		panic(fmt.Errorf("out-of-bounds write at %v", a))
	}
	_, err := unix.Pwrite(d.fd, v, int64(a*SectorSize))
	if err != nil {
		panic("write failed: " + err.Error())
	}
}

func (d fileDisk) Size() int {
	return d.numSectors
}

func (d fileDisk) Barrier() {
	// NOTE: on macOS, this flushes to the drive but doesn't actually issue a
	// disk barrier; see https://golang.org/src/internal/poll/fd_fsync_darwin.go
	// for more details. The correct replacement is to issue a fcntl syscall with
	// cmd F_FULLFSYNC.
	err := unix.Fsync(d.fd)
	if err != nil {
		panic("file sync failed: " + err.Error())
	}
}

func (d fileDisk) Close() {
	err := unix.Close(d.fd)
	if err != nil {
		panic(err)
	}
}

var _ Disk = memDisk{}

type memDisk struct {
	l       *sync.RWMutex
	sectors [][SectorSize]byte
}

// NewMemDisk returns an in-memory disk of numSectors zeroed sectors.
func NewMemDisk(numSectors int) Disk {
	sectors := make([][SectorSize]byte, numSectors)
	return memDisk{l: new(sync.RWMutex), sectors: sectors}
}

func (d memDisk) ReadTo(a int, buf Block) {
	if len(buf) != SectorSize {
		panic("buffer is not sector-sized")
	}
	d.l.RLock()
	defer d.l.RUnlock()
	if a < 0 || a >= len(d.sectors) {
		panic(fmt.Errorf("out-of-bounds read at %v", a))
	}
	copy(buf, d.sectors[a][:])
}

func (d memDisk) Read(a int) Block {
	buf := make(Block, SectorSize)
	d.ReadTo(a, buf)
	return buf
}

func (d memDisk) Write(a int, v Block) {
	if len(v) != SectorSize {
		panic(fmt.Errorf("v is not sector-sized (%d bytes)", len(v)))
	}
	d.l.Lock()
	defer d.l.Unlock()
	if a < 0 || a >= len(d.sectors) {
		panic(fmt.Errorf("out-of-bounds write at %v", a))
	}
	copy(d.sectors[a][:], v)
}

func (d memDisk) Size() int {
	// this never changes so we assume it's safe to run lock-free
	return len(d.sectors)
}

func (d memDisk) Barrier() {}

func (d memDisk) Close() {}
