// File model contains the structs which match the direct structures of a JFS image.
// All of them are encoded little endian without any alignment padding.

package gojfs

import (
	"bytes"
	"encoding/binary"
)

const (
	// NameSize is the size of the name buffer including the NUL terminator.
	NameSize = 64
	// MaxNameLength is the longest name which fits into an entry.
	MaxNameLength = NameSize - 1

	// FATEOF terminates block chains and the free list.
	FATEOF int32 = -1

	// FillByte is written by Fill and by Resize when a file grows.
	FillByte byte = 0

	// EntrySize is the encoded size of a DirEntry.
	EntrySize = NameSize + 4 + 4 + 1 + coordSize
	// SuperblockSize is the encoded size of the Superblock.
	SuperblockSize = 5*4 + EntrySize

	coordSize = 4 * 4
	fatSlotSize = 4
)

// Entry flags.
const (
	FlagFile      uint8 = 0
	FlagDirectory uint8 = 1
)

// Superblock field offsets.
const (
	offBlockSize      = 0
	offBlocksCount    = 4
	offSystemBytes    = 8
	offTotalBytes     = 12
	offFirstFreeBlock = 16
	offRoot           = 20
)

// Superblock is the header at the start of every image. It embeds the root entry.
type Superblock struct {
	BlockSize      uint32
	BlocksCount    uint32
	SystemBytes    uint32
	TotalBytes     uint32
	FirstFreeBlock int32
	Root           DirEntry
}

// Coord stores where an entry record lives and where the record of its parent lives.
// The root uses (-1, 0) for both as it is embedded in the superblock.
type Coord struct {
	MyBlock      int32
	MyOffset     uint32
	ParentBlock  int32
	ParentOffset uint32
}

// Self returns the location of the entry's own record.
func (c Coord) Self() Location {
	return Location{Block: c.MyBlock, Offset: c.MyOffset}
}

// Parent returns the location of the parent's record.
func (c Coord) Parent() Location {
	return Location{Block: c.ParentBlock, Offset: c.ParentOffset}
}

// DirEntry is the on-disk record of a file or directory.
type DirEntry struct {
	Name [NameSize]byte
	// Size is the length in bytes for files and the number of entries for directories.
	Size           uint32
	FirstDataBlock int32
	Flags          uint8
	Coord          Coord
}

// Location addresses an entry record: a data block and the entry index inside of it.
type Location struct {
	Block  int32
	Offset uint32
}

// RootLocation is the location of the root entry inside the superblock.
var RootLocation = Location{Block: FATEOF, Offset: 0}

// IsRoot reports if l points to the root entry.
func (l Location) IsRoot() bool {
	return l.Block < 0
}

func (e *DirEntry) IsDir() bool {
	return e.Flags&FlagDirectory == FlagDirectory
}

func (e *DirEntry) IsFile() bool {
	return !e.IsDir()
}

// FileName returns the name up to the NUL terminator.
func (e *DirEntry) FileName() string {
	if i := bytes.IndexByte(e.Name[:], 0); i >= 0 {
		return string(e.Name[:i])
	}
	return string(e.Name[:MaxNameLength])
}

func (e *DirEntry) setName(name string) {
	e.Name = [NameSize]byte{}
	copy(e.Name[:MaxNameLength], name)
}

func decodeEntry(b []byte) (DirEntry, error) {
	var e DirEntry
	err := binary.Read(bytes.NewReader(b[:EntrySize]), binary.LittleEndian, &e)
	return e, err
}

func encodeEntry(dst []byte, e DirEntry) error {
	buf := bytes.NewBuffer(make([]byte, 0, EntrySize))
	if err := binary.Write(buf, binary.LittleEndian, e); err != nil {
		return err
	}
	copy(dst[:EntrySize], buf.Bytes())
	return nil
}
