package gojfs

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aligator/gojfs/checkpoint"
	"github.com/apex/log"
)

// These errors may occur while working with directory entries.
var (
	ErrNotAFile          = errors.New("entry is not a file")
	ErrNotADirectory     = errors.New("entry is not a directory")
	ErrNameTooLong       = fmt.Errorf("name is longer than %d bytes", MaxNameLength)
	ErrNameEmpty         = errors.New("name is empty")
	ErrNameInvalid       = errors.New("name contains a NUL byte")
	ErrBlockSizeTooSmall = errors.New("block size too small, no entry fits into a block")
	ErrNoSuchEntry       = errors.New("no such entry")
)

// Entry is a handle to a file or directory record of an image.
// It addresses the record by its storage location, so it stays valid until the
// record gets relocated. Relocation happens to the last entry of a directory
// whenever a sibling is removed and to entries which are moved.
// The handle passed to Move is updated to the new location.
type Entry struct {
	img *Image
	loc Location
}

// Root returns the root directory which is embedded in the superblock.
func (img *Image) Root() *Entry {
	return &Entry{img: img, loc: RootLocation}
}

// Entry returns a handle to the record at loc.
func (img *Image) Entry(loc Location) (*Entry, error) {
	if _, err := img.loadEntry(loc); err != nil {
		return nil, err
	}
	return &Entry{img: img, loc: loc}, nil
}

func (e *Entry) Location() Location {
	return e.loc
}

func (e *Entry) Image() *Image {
	return e.img
}

// Stat decodes the current record of the entry.
func (e *Entry) Stat() (DirEntry, error) {
	return e.img.loadEntry(e.loc)
}

// Name returns the name of the entry or "" if the record cannot be read.
func (e *Entry) Name() string {
	rec, err := e.Stat()
	if err != nil {
		return ""
	}
	return rec.FileName()
}

func (e *Entry) IsRoot() bool {
	return e.loc.IsRoot()
}

// Parent returns the directory containing the entry. The root is its own parent.
func (e *Entry) Parent() (*Entry, error) {
	rec, err := e.Stat()
	if err != nil {
		return nil, err
	}
	return &Entry{img: e.img, loc: rec.Coord.Parent()}, nil
}

// Create adds a new empty file or directory to the directory e.
func (e *Entry) Create(name string, isDir bool) (*Entry, error) {
	flags := FlagFile
	if isDir {
		flags = FlagDirectory
	}
	loc, err := e.img.createEntry(e.loc, name, flags)
	if err != nil {
		return nil, err
	}
	return &Entry{img: e.img, loc: loc}, nil
}

// Child returns the entry at the given offset of the directory e.
// ErrNoSuchEntry is returned if offset is past the last entry, which is the
// normal end of an iteration.
func (e *Entry) Child(offset uint32) (*Entry, error) {
	loc, err := e.img.lookupByOffset(e.loc, offset)
	if err != nil {
		return nil, err
	}
	return &Entry{img: e.img, loc: loc}, nil
}

// Children lists all entries of the directory e in storage order.
func (e *Entry) Children() ([]*Entry, error) {
	var children []*Entry
	err := e.img.eachChild(e.loc, func(loc Location, _ DirEntry) error {
		children = append(children, &Entry{img: e.img, loc: loc})
		return nil
	})
	return children, err
}

// Lookup searches the directory e for an entry with the given name.
func (e *Entry) Lookup(name string) (*Entry, error) {
	var found *Entry
	err := e.img.eachChild(e.loc, func(loc Location, rec DirEntry) error {
		if rec.FileName() == name {
			found = &Entry{img: e.img, loc: loc}
			return io.EOF
		}
		return nil
	})
	if err != nil && err != io.EOF {
		return nil, err
	}
	if found == nil {
		return nil, checkpoint.Errorf(ErrNoSuchEntry, "%q", name)
	}
	return found, nil
}

func checkName(name string) error {
	if len(name) == 0 {
		return checkpoint.From(ErrNameEmpty)
	}
	if len(name) > MaxNameLength {
		return checkpoint.Errorf(ErrNameTooLong, "%q has %d bytes", name, len(name))
	}
	if strings.IndexByte(name, 0) >= 0 {
		return checkpoint.Errorf(ErrNameInvalid, "%q", name)
	}
	return nil
}

// loadEntry decodes the record at loc.
func (img *Image) loadEntry(loc Location) (DirEntry, error) {
	raw, err := img.entryBytes(loc)
	if err != nil {
		return DirEntry{}, err
	}
	rec, err := decodeEntry(raw)
	return rec, checkpoint.From(err)
}

// storeEntry encodes rec into the record slot at loc.
func (img *Image) storeEntry(loc Location, rec DirEntry) error {
	raw, err := img.entryBytes(loc)
	if err != nil {
		return err
	}
	return checkpoint.From(encodeEntry(raw, rec))
}

// entryBytes returns the view on the record slot at loc.
func (img *Image) entryBytes(loc Location) ([]byte, error) {
	if loc.IsRoot() {
		return img.data[offRoot : offRoot+EntrySize], nil
	}
	if loc.Offset >= img.EntriesPerBlock() {
		return nil, checkpoint.Errorf(ErrBadOffset, "entry offset %d in block %d", loc.Offset, loc.Block)
	}
	data, err := img.block(loc.Block)
	if err != nil {
		return nil, err
	}
	start := int(loc.Offset) * EntrySize
	return data[start : start+EntrySize], nil
}

func (img *Image) loadDir(loc Location) (DirEntry, error) {
	rec, err := img.loadEntry(loc)
	if err != nil {
		return rec, err
	}
	if !rec.IsDir() {
		return rec, checkpoint.Errorf(ErrNotADirectory, "%q", rec.FileName())
	}
	return rec, nil
}

// createEntry appends a new record to the directory at parentLoc.
// A new block is only allocated if the last block of the directory is full.
func (img *Image) createEntry(parentLoc Location, name string, flags uint8) (Location, error) {
	if err := checkName(name); err != nil {
		return Location{}, err
	}

	parent, err := img.loadDir(parentLoc)
	if err != nil {
		return Location{}, err
	}

	perBlock := img.EntriesPerBlock()
	if perBlock == 0 {
		return Location{}, checkpoint.Errorf(ErrBlockSizeTooSmall, "block size %d, entry size %d", img.BlockSize(), EntrySize)
	}

	slot := parent.Size
	var block int32
	if slot%perBlock == 0 {
		block, err = img.allocateBlock()
		if err != nil {
			return Location{}, err
		}
		if err := img.appendToChain(&parent, block); err != nil {
			return Location{}, err
		}
	} else {
		block, err = img.walk(parent.FirstDataBlock, slot/perBlock)
		if err != nil {
			return Location{}, err
		}
	}

	loc := Location{Block: block, Offset: slot % perBlock}
	rec := DirEntry{
		FirstDataBlock: FATEOF,
		Flags:          flags,
		Coord: Coord{
			MyBlock:      loc.Block,
			MyOffset:     loc.Offset,
			ParentBlock:  parent.Coord.MyBlock,
			ParentOffset: parent.Coord.MyOffset,
		},
	}
	rec.setName(name)
	if err := img.storeEntry(loc, rec); err != nil {
		return Location{}, err
	}

	parent.Size++
	if err := img.storeEntry(parentLoc, parent); err != nil {
		return Location{}, err
	}

	img.log.WithFields(log.Fields{
		"name":   name,
		"block":  loc.Block,
		"offset": loc.Offset,
	}).Debug("created entry")
	return loc, nil
}

// lookupByOffset resolves the location of the entry at offset of the directory at dirLoc.
func (img *Image) lookupByOffset(dirLoc Location, offset uint32) (Location, error) {
	dir, err := img.loadDir(dirLoc)
	if err != nil {
		return Location{}, err
	}
	if offset >= dir.Size {
		return Location{}, checkpoint.Errorf(ErrNoSuchEntry, "offset %d of %d entries", offset, dir.Size)
	}

	perBlock := img.EntriesPerBlock()
	if perBlock == 0 {
		return Location{}, checkpoint.From(ErrBlockSizeTooSmall)
	}

	block, err := img.walk(dir.FirstDataBlock, offset/perBlock)
	if err != nil {
		return Location{}, err
	}
	return Location{Block: block, Offset: offset % perBlock}, nil
}

// eachChild calls fn for every entry of the directory at dirLoc in storage
// order, walking the chain only once. Iteration stops on the first error.
func (img *Image) eachChild(dirLoc Location, fn func(loc Location, rec DirEntry) error) error {
	dir, err := img.loadDir(dirLoc)
	if err != nil {
		return err
	}

	perBlock := img.EntriesPerBlock()
	remaining := dir.Size
	return img.eachBlock(dir.FirstDataBlock, func(block int32) error {
		for offset := uint32(0); offset < perBlock && remaining > 0; offset++ {
			loc := Location{Block: block, Offset: offset}
			rec, err := img.loadEntry(loc)
			if err != nil {
				return err
			}
			remaining--
			if err := fn(loc, rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// adoptChildren points the parent coordinates of all children of the
// directory at dirLoc to dirLoc. It is needed after the directory record
// itself got relocated.
func (img *Image) adoptChildren(dirLoc Location) error {
	return img.eachChild(dirLoc, func(loc Location, rec DirEntry) error {
		rec.Coord.ParentBlock = dirLoc.Block
		rec.Coord.ParentOffset = dirLoc.Offset
		return img.storeEntry(loc, rec)
	})
}
