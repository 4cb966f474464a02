package fs

import (
	"strings"

	"github.com/ilms49898723/NachOS-MP4/common"
	"github.com/ilms49898723/NachOS-MP4/directory"
	"github.com/ilms49898723/NachOS-MP4/openfile"
)

// SplitPath cuts fullPath at its last slash into the parent directory
// and the final name. A path with no slash gets "/" as its parent;
// paths are expected to be absolute.
func SplitPath(fullPath string) (string, string) {
	idx := strings.LastIndexByte(fullPath, '/')
	if idx == -1 {
		return "/", fullPath
	}
	parent := fullPath[:idx]
	name := fullPath[idx+1:]
	if parent == "" {
		parent = "/"
	}
	return parent, name
}

// JoinPath appends name to parent with a single slash between them.
func JoinPath(parent string, name string) string {
	if strings.HasSuffix(parent, "/") {
		return parent + name
	}
	return parent + "/" + name
}

// OpenDir walks path from the root directory and returns a handle on
// the final component's header sector, or nil if a component is
// missing. Empty components collapse, so leading and repeated slashes
// are harmless.
//
// Interior components are not checked to be directories; a path
// through a file reads file data as a table and gives undefined
// results.
func (fs *FileSystem) OpenDir(path string) *openfile.OpenFile {
	dir := directory.MkDirectory(common.NumDirEntries)
	dir.FetchFrom(fs.directoryFile)

	sector := common.DirectorySector
	for _, component := range strings.Split(path, "/") {
		if component == "" {
			continue
		}
		sector = dir.Find(component)
		if sector == -1 {
			return nil
		}
		dir.FetchFrom(openfile.MkOpenFile(fs.d, sector))
	}
	return openfile.MkOpenFile(fs.d, sector)
}
