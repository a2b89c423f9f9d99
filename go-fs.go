package gojfs

import (
	"errors"
	"io/fs"

	"github.com/spf13/afero"
)

// GoDirEntry adapts the FileInfo of a record to fs.DirEntry.
type GoDirEntry struct {
	fs.FileInfo
}

func (g GoDirEntry) Type() fs.FileMode {
	return g.FileInfo.Mode().Type()
}

func (g GoDirEntry) Info() (fs.FileInfo, error) {
	return g.FileInfo, nil
}

// GoFile is a File which also implements fs.ReadDirFile.
type GoFile struct {
	*File
}

func (g GoFile) ReadDir(n int) ([]fs.DirEntry, error) {
	infos, err := g.File.Readdir(n)

	entries := make([]fs.DirEntry, len(infos))
	for i, info := range infos {
		entries[i] = GoDirEntry{info}
	}

	return entries, err
}

// GoFs wraps Fs to be compatible with fs.FS.
type GoFs struct {
	Fs
}

// NewGoFS exposes img as fs.FS.
func NewGoFS(img *Image) *GoFs {
	return &GoFs{Fs{img: img}}
}

// NewIOFS exposes img as fs.FS using the afero compatibility layer.
func NewIOFS(img *Image) afero.IOFS {
	return afero.NewIOFS(NewFs(img))
}

func (g GoFs) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}

	file, err := g.Fs.Open(name)
	if err != nil {
		return nil, err
	}

	f, ok := file.(*File)
	if !ok {
		return nil, errors.New("unexpected file implementation")
	}

	return GoFile{f}, nil
}
