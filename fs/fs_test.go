package fs

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/ilms49898723/NachOS-MP4/bitmap"
	"github.com/ilms49898723/NachOS-MP4/common"
	"github.com/ilms49898723/NachOS-MP4/disk"
	"github.com/ilms49898723/NachOS-MP4/filehdr"
	"github.com/ilms49898723/NachOS-MP4/util"
)

const diskSectors = 128

type FsSuite struct {
	suite.Suite
	d         disk.Disk
	fs        *FileSystem
	out       *bytes.Buffer
	formatted []int
}

func (s *FsSuite) SetupTest() {
	s.d = disk.NewMemDisk(diskSectors)
	s.fs = MkFileSystem(s.d, true)
	s.out = new(bytes.Buffer)
	s.fs.SetOutput(s.out)
	s.formatted = s.allocatedSectors()
}

func TestFs(t *testing.T) {
	suite.Run(t, new(FsSuite))
}

// allocatedSectors reads the on-disk free map and returns the set bits.
func (s *FsSuite) allocatedSectors() []int {
	freeMap := bitmap.MkBitmapFrom(s.fs.freeMapFile, s.d.Size())
	var set []int
	for i := 0; i < s.d.Size(); i++ {
		if freeMap.Test(i) {
			set = append(set, i)
		}
	}
	return set
}

func (s *FsSuite) diskImage() [][]byte {
	img := make([][]byte, s.d.Size())
	for i := range img {
		img[i] = s.d.Read(i)
	}
	return img
}

func pattern(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = byte(i % 251)
	}
	return p
}

func (s *FsSuite) TestFormat() {
	s.fs.List("/")
	s.Equal("", s.out.String(), "a fresh root lists nothing")

	// sectors 0 and 1 hold the two headers; the free map data takes
	// one sector and the directory data eight more
	dirSectors := util.DivRoundUp(common.DirectoryFileSize, disk.SectorSize)
	want := []int{}
	for i := 0; i < 2+1+dirSectors; i++ {
		want = append(want, i)
	}
	s.Equal(want, s.formatted)
}

func (s *FsSuite) TestRemount() {
	s.True(s.fs.Create("/a", 100))

	fs2 := MkFileSystem(s.d, false)
	fs2.SetOutput(s.out)
	fp := fs2.Open("/a")
	s.NotNil(fp, "a remount sees files created before it")
	s.Equal(100, fp.Length())
}

func (s *FsSuite) TestCreateSmallFile() {
	s.True(s.fs.Create("/a", 100))

	fp := s.fs.Open("/a")
	s.Require().NotNil(fp)
	root := fp.Header()
	s.Equal(filehdr.LevelRoot, root.Level)
	s.Equal(1, root.NumSectors, "100 bytes need one child header")
	s.Equal(100, root.NumBytes)

	child := new(filehdr.FileHeader)
	child.FetchFrom(s.d, root.DataSectors[0])
	s.Equal(filehdr.LevelData, child.Level)
	s.Equal(1, child.NumSectors)
}

func (s *FsSuite) TestCreateTwoChildFile() {
	size := filehdr.Level1MaxBytes + disk.SectorSize
	s.True(s.fs.Create("/big", size))

	root := s.fs.Open("/big").Header()
	s.Equal(2, root.NumSectors)

	first := new(filehdr.FileHeader)
	first.FetchFrom(s.d, root.DataSectors[0])
	s.Equal(common.NumDirect, first.NumSectors, "first child is full")

	second := new(filehdr.FileHeader)
	second.FetchFrom(s.d, root.DataSectors[1])
	s.Equal(1, second.NumSectors, "last child takes the remainder")
}

func (s *FsSuite) TestCreateEmptyFile() {
	s.True(s.fs.Create("/empty", 0))
	fp := s.fs.Open("/empty")
	s.Require().NotNil(fp)
	s.Equal(0, fp.Length())
	s.Equal(0, fp.Header().NumSectors)
}

func (s *FsSuite) TestCreateDuplicateFails() {
	s.True(s.fs.Create("/a", 100))
	before := s.diskImage()

	s.False(s.fs.Create("/a", 50), "second create of the same name fails")
	s.Equal(before, s.diskImage(), "a failed create writes nothing")
	s.Equal(100, s.fs.Open("/a").Length())
}

func (s *FsSuite) TestCreateMissingParentFails() {
	before := s.diskImage()
	s.False(s.fs.Create("/nope/x", 10))
	s.Equal(before, s.diskImage())
}

func (s *FsSuite) TestCreateOutOfSpaceFails() {
	before := s.diskImage()
	s.False(s.fs.Create("/huge", 120*disk.SectorSize),
		"more data sectors than the disk has left")
	s.Equal(before, s.diskImage(),
		"partially mutated bitmap state is discarded, not flushed")
}

func (s *FsSuite) TestCreateOverMaxSizeFails() {
	s.False(s.fs.Create("/huge", common.MaxFileSize+1))
}

func (s *FsSuite) TestDirectoryFull() {
	for i := 0; i < common.NumDirEntries; i++ {
		s.Require().True(s.fs.Create(fmt.Sprintf("/f%d", i), 0))
	}
	before := s.diskImage()
	s.False(s.fs.Create("/onemore", 0), "no free directory slot")
	s.Equal(before, s.diskImage())
}

func (s *FsSuite) TestListSeveral() {
	s.True(s.fs.Create("/a", 10))
	s.True(s.fs.Create("/b", 10))
	s.True(s.fs.CreateDirectory("d", "/"))
	s.fs.List("/")
	s.Equal("a\nb\nd\n", s.out.String())
}

func (s *FsSuite) TestNestedDirectories() {
	s.True(s.fs.CreateDirectory("d", "/"))
	s.True(s.fs.CreateDirectory("e", "/d"))
	s.True(s.fs.Create("/d/e/x", 42))

	fp := s.fs.Open("/d/e/x")
	s.Require().NotNil(fp)
	s.Equal(42, fp.Length())

	s.Nil(s.fs.Open("/d/x"), "x lives two levels down, not one")

	s.fs.List("/d/e")
	s.Equal("x\n", s.out.String())
}

func (s *FsSuite) TestSlashNoise() {
	s.True(s.fs.CreateDirectory("d", "/"))
	s.True(s.fs.Create("//d//x", 10), "repeated slashes collapse")
	s.NotNil(s.fs.Open("/d/x"))
}

func (s *FsSuite) TestRecursiveListTree() {
	s.True(s.fs.CreateDirectory("d", "/"))
	s.True(s.fs.Create("/d/x", 10))
	s.fs.RecursiveList("/")
	s.Equal("└──\x1B[1;34md/\x1B[0m\n    └──x\x1B[0m\n", s.out.String())
}

func (s *FsSuite) TestRecursiveListConnectors() {
	s.True(s.fs.CreateDirectory("d", "/"))
	s.True(s.fs.Create("/d/x", 10))
	s.True(s.fs.Create("/d/y", 10))
	s.True(s.fs.Create("/z", 10))
	s.fs.RecursiveList("/")
	want := "├──\x1B[1;34md/\x1B[0m\n" +
		"│   ├──x\x1B[0m\n" +
		"│   └──y\x1B[0m\n" +
		"└──z\x1B[0m\n"
	s.Equal(want, s.out.String())
}

func (s *FsSuite) TestRemoveFile() {
	s.True(s.fs.Create("/a", 2*filehdr.Level1MaxBytes))
	s.True(s.fs.Remove("/a", false))
	s.Nil(s.fs.Open("/a"))
	s.Equal(s.formatted, s.allocatedSectors(),
		"all sectors of a two-child file come back")
}

func (s *FsSuite) TestRemoveMissing() {
	s.False(s.fs.Remove("/zzz", false))
	s.Equal("File zzz not found!\n", s.out.String())

	s.out.Reset()
	s.False(s.fs.Remove("/no/x", false))
	s.Equal("Directory /no not found!\n", s.out.String())
}

func (s *FsSuite) TestRemoveNonEmptyDirectory() {
	s.True(s.fs.CreateDirectory("d", "/"))
	s.True(s.fs.Create("/d/x", 10))

	s.False(s.fs.Remove("/d", false))
	s.Contains(s.out.String(), "d: directory not empty!")
	s.NotNil(s.fs.Open("/d/x"), "failed remove leaves the tree intact")

	s.True(s.fs.Remove("/d", true))
	s.Nil(s.fs.Open("/d/x"))
	s.Nil(s.fs.OpenDir("/d"))
	s.Equal(s.formatted, s.allocatedSectors())
}

func (s *FsSuite) TestRecursiveRemoveFreesEverything() {
	s.True(s.fs.CreateDirectory("d", "/"))
	s.True(s.fs.CreateDirectory("e", "/d"))
	s.True(s.fs.Create("/d/x", 500))
	s.True(s.fs.Create("/d/e/y", 2*filehdr.Level1MaxBytes))

	s.True(s.fs.Remove("/d", true))
	s.Equal(s.formatted, s.allocatedSectors(),
		"recursive remove frees the whole subtree")
}

func (s *FsSuite) TestBitmapConservation() {
	s.True(s.fs.Create("/a", 300))
	s.True(s.fs.CreateDirectory("d", "/"))
	s.True(s.fs.Create("/d/b", 4000))
	s.True(s.fs.Remove("/a", false))
	s.True(s.fs.Create("/c", 100))
	s.True(s.fs.Remove("/d", true))
	s.True(s.fs.Remove("/c", false))
	s.Equal(s.formatted, s.allocatedSectors())
}

func (s *FsSuite) TestRoundTripThroughDescriptors() {
	size := filehdr.Level1MaxBytes + 333
	s.True(s.fs.Create("/data", size))

	data := pattern(size)
	id := s.fs.OpenFd("/data")
	s.Require().NotEqual(-1, id)
	s.Equal(size, s.fs.WriteFd(data, id))
	s.Equal(1, s.fs.CloseFd(id))

	id = s.fs.OpenFd("/data")
	got := make([]byte, size)
	s.Equal(size, s.fs.ReadFd(got, id))
	s.Equal(data, got)
	s.Equal(0, s.fs.ReadFd(got, id), "cursor is at EOF now")
}

func (s *FsSuite) TestDescriptorSlots() {
	s.True(s.fs.Create("/a", 10))

	id1 := s.fs.OpenFd("/a")
	id2 := s.fs.OpenFd("/a")
	s.Equal(1, id1)
	s.Equal(2, id2, "two opens of one file get distinct descriptors")

	s.Equal(1, s.fs.CloseFd(id1))
	s.Equal(0, s.fs.CloseFd(id1), "second close is a no-op")

	s.Equal(1, s.fs.OpenFd("/a"), "the lowest freed slot is reused")

	s.Equal(-1, s.fs.OpenFd("/missing"))
	s.Equal(-1, s.fs.ReadFd(make([]byte, 4), 7), "empty slot")
	s.Equal(-1, s.fs.WriteFd([]byte{1}, 7))
	s.Equal(0, s.fs.CloseFd(7))
	s.Equal(-1, s.fs.ReadFd(make([]byte, 4), 0), "descriptor 0 is reserved")
}

func (s *FsSuite) TestDescriptorTableFull() {
	s.True(s.fs.Create("/a", 10))
	for i := 1; i < common.NumFileDescriptors; i++ {
		s.Equal(i, s.fs.OpenFd("/a"))
	}
	s.Equal(-1, s.fs.OpenFd("/a"), "table full")
}

func (s *FsSuite) TestPrintMentionsEverything() {
	s.True(s.fs.Create("/a", 10))
	s.fs.Print()
	out := s.out.String()
	s.Contains(out, "Bit map file header:")
	s.Contains(out, "Directory file header:")
	s.Contains(out, "Bitmap set:")
	s.Contains(out, "Name: a, Sector:")
}
