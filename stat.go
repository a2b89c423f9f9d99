package gojfs

import (
	"os"
	"time"
)

// FileInfo returns the record as os.FileInfo.
func (e DirEntry) FileInfo() os.FileInfo {
	return entryFileInfo{e}
}

type entryFileInfo struct {
	entry DirEntry
}

func (e entryFileInfo) Name() string {
	return e.entry.FileName()
}

// Size returns the byte length of files. Directories report 0 as their
// size field counts entries.
func (e entryFileInfo) Size() int64 {
	if e.entry.IsDir() {
		return 0
	}
	return int64(e.entry.Size)
}

// Mode is synthesized, JFS has no permissions.
func (e entryFileInfo) Mode() os.FileMode {
	if e.IsDir() {
		return os.ModeDir | 0755
	}
	return 0644
}

// ModTime is always the zero time, JFS stores no timestamps.
func (e entryFileInfo) ModTime() time.Time {
	return time.Time{}
}

func (e entryFileInfo) IsDir() bool {
	return e.entry.IsDir()
}

func (e entryFileInfo) Sys() interface{} {
	return e.entry
}
