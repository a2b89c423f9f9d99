// Package importer copies a host directory tree into a JFS image.
//
// It only talks to the image through entries: for every node it creates an
// entry under the parent and for files it writes the content with
// sequentially increasing offsets, one block at a time.
package importer

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aligator/gojfs"
	"github.com/aligator/gojfs/checkpoint"
	"github.com/apex/log"
	"github.com/spf13/afero"
)

var (
	ErrUnsupportedNode = errors.New("neither a regular file nor a directory")
	ErrFileTooLarge    = errors.New("file does not fit into a jfs entry")
)

// Options control the import.
type Options struct {
	// PreserveCase keeps names as they are, otherwise they are lowercased.
	PreserveCase bool
	// SkipSpecial skips nodes which are neither regular files nor directories
	// instead of failing with ErrUnsupportedNode.
	SkipSpecial bool
	// Logger receives progress. log.Log is used if nil.
	Logger log.Interface
}

// EntryName derives the entry name from the last element of p.
// Names which are empty or too long are rejected instead of being truncated.
func EntryName(p string, preserveCase bool) (string, error) {
	name := path.Base(filepath.ToSlash(p))
	if name == "." || name == "/" {
		name = ""
	}
	if !preserveCase {
		name = strings.ToLower(name)
	}

	switch {
	case name == "":
		return "", checkpoint.Errorf(gojfs.ErrNameEmpty, "path %q", p)
	case len(name) > gojfs.MaxNameLength:
		return "", checkpoint.Errorf(gojfs.ErrNameTooLong, "path %q", p)
	}
	return name, nil
}

// Import copies the content of the directory root of src into the directory dst.
// Entries are created in lexical order of the host names.
func Import(src afero.Fs, root string, dst *gojfs.Entry, opts Options) error {
	if opts.Logger == nil {
		opts.Logger = log.Log
	}

	info, err := src.Stat(root)
	if err != nil {
		return checkpoint.From(err)
	}
	if !info.IsDir() {
		return checkpoint.Errorf(gojfs.ErrNotADirectory, "%q", root)
	}

	return importDir(src, root, dst, opts)
}

func importDir(src afero.Fs, dir string, dst *gojfs.Entry, opts Options) error {
	infos, err := afero.ReadDir(src, dir)
	if err != nil {
		return checkpoint.From(err)
	}

	for _, info := range infos {
		p := filepath.Join(dir, info.Name())
		logger := opts.Logger.WithField("path", p)

		switch {
		case info.IsDir():
			name, err := EntryName(p, opts.PreserveCase)
			if err != nil {
				return err
			}
			child, err := createEntry(dst, name, true)
			if err != nil {
				return checkpoint.Wrap(err, fmt.Errorf("creating directory %q", p))
			}
			logger.Debug("imported directory")

			if err := importDir(src, p, child, opts); err != nil {
				return err
			}

		case info.Mode().IsRegular():
			name, err := EntryName(p, opts.PreserveCase)
			if err != nil {
				return err
			}
			if info.Size() > math.MaxUint32 {
				return checkpoint.Errorf(ErrFileTooLarge, "%q has %d bytes", p, info.Size())
			}
			child, err := createEntry(dst, name, false)
			if err != nil {
				return checkpoint.Wrap(err, fmt.Errorf("creating file %q", p))
			}
			written, err := copyFile(src, p, child)
			if err != nil {
				return checkpoint.Wrap(err, fmt.Errorf("writing file %q", p))
			}
			logger.WithField("bytes", written).Debug("imported file")

		case opts.SkipSpecial:
			logger.WithField("mode", info.Mode().String()).Warn("skipping special file")

		default:
			return checkpoint.Errorf(ErrUnsupportedNode, "%q (%v)", p, info.Mode())
		}
	}

	return nil
}

// createEntry creates name in dir unless a sibling already uses it, which
// happens when names only differ in case.
func createEntry(dir *gojfs.Entry, name string, isDir bool) (*gojfs.Entry, error) {
	_, err := dir.Lookup(name)
	switch {
	case err == nil:
		return nil, checkpoint.Errorf(os.ErrExist, "%q", name)
	case !errors.Is(err, gojfs.ErrNoSuchEntry):
		return nil, err
	}
	return dir.Create(name, isDir)
}

// copyFile writes the content of the host file p into the entry in block sized chunks.
func copyFile(src afero.Fs, p string, dst *gojfs.Entry) (uint32, error) {
	f, err := src.Open(p)
	if err != nil {
		return 0, checkpoint.From(err)
	}
	defer f.Close()

	buffer := make([]byte, dst.Image().BlockSize())
	var written uint32
	for {
		n, err := io.ReadFull(f, buffer)
		if n > 0 {
			w, werr := dst.Write(written, buffer[:n])
			written += uint32(w)
			if werr != nil {
				return written, werr
			}
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return written, nil
		}
		if err != nil {
			return written, checkpoint.From(err)
		}
	}
}

// Stats describe what a directory tree needs inside an image.
type Stats struct {
	Files      uint32
	Dirs       uint32
	FileBlocks uint32
	DirBlocks  uint32
}

// Blocks is the total number of data blocks needed.
func (s Stats) Blocks() uint32 {
	return s.FileBlocks + s.DirBlocks
}

// Estimate counts files, directories and the blocks an import of root needs
// for the given block size. The root directory itself is included in DirBlocks.
func Estimate(src afero.Fs, root string, blockSize uint32, opts Options) (Stats, error) {
	var stats Stats
	perBlock := blockSize / gojfs.EntrySize
	if perBlock == 0 {
		return stats, checkpoint.From(gojfs.ErrBlockSizeTooSmall)
	}

	root = filepath.Clean(root)
	children := map[string]uint32{}
	err := afero.Walk(src, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}

		parent := filepath.Dir(p)
		switch {
		case info.IsDir():
			stats.Dirs++
		case info.Mode().IsRegular():
			stats.Files++
			stats.FileBlocks += uint32((info.Size() + int64(blockSize) - 1) / int64(blockSize))
		case opts.SkipSpecial:
			return nil
		default:
			return checkpoint.Errorf(ErrUnsupportedNode, "%q (%v)", p, info.Mode())
		}
		children[parent]++
		return nil
	})
	if err != nil {
		return stats, checkpoint.From(err)
	}

	for _, count := range children {
		stats.DirBlocks += (count + perBlock - 1) / perBlock
	}
	return stats, nil
}
