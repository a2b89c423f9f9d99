package gojfs

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/aligator/gojfs/checkpoint"
	"github.com/apex/log"
)

// These errors may occur while creating, loading or addressing an image.
var (
	ErrInvalidGeometry = errors.New("invalid image geometry")
	ErrCorruptImage    = errors.New("corrupt image")
	ErrBlockOutOfRange = errors.New("block number out of range")
)

// Options configure a new image.
type Options struct {
	// BlockSize is the size of each data block in bytes.
	BlockSize uint32
	// BlocksCount is the number of data blocks.
	BlocksCount uint32
	// Label is stored as the name of the root directory.
	Label string
	// Logger receives debug events. log.Log is used if nil.
	Logger log.Interface
}

// Image is a complete JFS image held in one byte buffer:
//  [Superblock][FAT: blocks_count × int32][Data blocks: blocks_count × block_size]
// All structures are accessed through views computed on demand.
//
// An Image is not safe for concurrent use. Callers which share it have to
// serialize all operations themselves.
type Image struct {
	data []byte
	log  log.Interface
}

// New formats a fresh image. All blocks are linked into the free list in
// ascending order and the root is an empty directory.
func New(opts Options) (*Image, error) {
	if opts.BlockSize == 0 || opts.BlocksCount == 0 {
		return nil, checkpoint.Errorf(ErrInvalidGeometry, "block size %d, blocks count %d", opts.BlockSize, opts.BlocksCount)
	}
	if len(opts.Label) > MaxNameLength {
		return nil, checkpoint.From(ErrNameTooLong)
	}

	systemBytes := uint64(SuperblockSize) + uint64(opts.BlocksCount)*fatSlotSize
	totalBytes := systemBytes + uint64(opts.BlocksCount)*uint64(opts.BlockSize)
	if totalBytes > math.MaxUint32 {
		return nil, checkpoint.Errorf(ErrInvalidGeometry, "image of %d bytes is too large", totalBytes)
	}

	img := &Image{
		data: make([]byte, totalBytes),
		log:  opts.Logger,
	}
	if img.log == nil {
		img.log = log.Log
	}

	le := binary.LittleEndian
	le.PutUint32(img.data[offBlockSize:], opts.BlockSize)
	le.PutUint32(img.data[offBlocksCount:], opts.BlocksCount)
	le.PutUint32(img.data[offSystemBytes:], uint32(systemBytes))
	le.PutUint32(img.data[offTotalBytes:], uint32(totalBytes))
	img.setFirstFreeBlock(0)

	for i := uint32(0); i < opts.BlocksCount-1; i++ {
		img.putFAT(int32(i), int32(i+1))
	}
	img.putFAT(int32(opts.BlocksCount-1), FATEOF)

	root := DirEntry{
		FirstDataBlock: FATEOF,
		Flags:          FlagDirectory,
		Coord: Coord{
			MyBlock:      FATEOF,
			MyOffset:     0,
			ParentBlock:  FATEOF,
			ParentOffset: 0,
		},
	}
	root.setName(opts.Label)
	if err := img.storeEntry(RootLocation, root); err != nil {
		return nil, checkpoint.From(err)
	}

	img.log.WithFields(log.Fields{
		"block_size":   opts.BlockSize,
		"blocks_count": opts.BlocksCount,
		"total_bytes":  totalBytes,
	}).Debug("formatted image")

	return img, nil
}

// Load adopts an existing image. The buffer is used directly, not copied.
// The superblock layout invariants are validated.
func Load(data []byte, logger log.Interface) (*Image, error) {
	if len(data) < SuperblockSize {
		return nil, checkpoint.Errorf(ErrCorruptImage, "image of %d bytes has no superblock", len(data))
	}

	var sb Superblock
	if err := binary.Read(bytes.NewReader(data[:SuperblockSize]), binary.LittleEndian, &sb); err != nil {
		return nil, checkpoint.Wrap(err, ErrCorruptImage)
	}

	if sb.BlockSize == 0 || sb.BlocksCount == 0 {
		return nil, checkpoint.Errorf(ErrCorruptImage, "block size %d, blocks count %d", sb.BlockSize, sb.BlocksCount)
	}
	systemBytes := uint64(SuperblockSize) + uint64(sb.BlocksCount)*fatSlotSize
	if uint64(sb.SystemBytes) != systemBytes {
		return nil, checkpoint.Errorf(ErrCorruptImage, "system bytes %d, expected %d", sb.SystemBytes, systemBytes)
	}
	totalBytes := systemBytes + uint64(sb.BlocksCount)*uint64(sb.BlockSize)
	if uint64(sb.TotalBytes) != totalBytes || uint64(len(data)) != totalBytes {
		return nil, checkpoint.Errorf(ErrCorruptImage, "total bytes %d with buffer of %d, expected %d", sb.TotalBytes, len(data), totalBytes)
	}
	if sb.FirstFreeBlock < FATEOF || sb.FirstFreeBlock >= int32(sb.BlocksCount) {
		return nil, checkpoint.Errorf(ErrCorruptImage, "first free block %d", sb.FirstFreeBlock)
	}
	if !sb.Root.IsDir() || sb.Root.Coord.Self() != RootLocation || sb.Root.Coord.Parent() != RootLocation {
		return nil, checkpoint.Errorf(ErrCorruptImage, "invalid root entry")
	}

	if logger == nil {
		logger = log.Log
	}
	return &Image{data: data, log: logger}, nil
}

// ReadImage reads a whole image from r.
func ReadImage(r io.Reader, logger log.Interface) (*Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, checkpoint.From(err)
	}
	return Load(data, logger)
}

// Bytes returns the underlying buffer.
func (img *Image) Bytes() []byte {
	return img.data
}

// WriteTo writes the whole image to w.
func (img *Image) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(img.data)
	return int64(n), checkpoint.From(err)
}

func (img *Image) BlockSize() uint32 {
	return binary.LittleEndian.Uint32(img.data[offBlockSize:])
}

func (img *Image) BlocksCount() uint32 {
	return binary.LittleEndian.Uint32(img.data[offBlocksCount:])
}

func (img *Image) SystemBytes() uint32 {
	return binary.LittleEndian.Uint32(img.data[offSystemBytes:])
}

func (img *Image) TotalBytes() uint32 {
	return binary.LittleEndian.Uint32(img.data[offTotalBytes:])
}

// FirstFreeBlock returns the head of the free list or -1 if no block is free.
func (img *Image) FirstFreeBlock() int32 {
	return int32(binary.LittleEndian.Uint32(img.data[offFirstFreeBlock:]))
}

func (img *Image) setFirstFreeBlock(block int32) {
	binary.LittleEndian.PutUint32(img.data[offFirstFreeBlock:], uint32(block))
}

// Superblock decodes the current superblock.
func (img *Image) Superblock() (Superblock, error) {
	var sb Superblock
	err := binary.Read(bytes.NewReader(img.data[:SuperblockSize]), binary.LittleEndian, &sb)
	return sb, checkpoint.From(err)
}

// EntriesPerBlock returns how many entry records fit into one block.
func (img *Image) EntriesPerBlock() uint32 {
	return img.BlockSize() / EntrySize
}

func (img *Image) checkBlock(block int32) error {
	if block < 0 || uint32(block) >= img.BlocksCount() {
		return checkpoint.Errorf(ErrBlockOutOfRange, "block %d of %d", block, img.BlocksCount())
	}
	return nil
}

// FAT returns the FAT slot of the given block.
func (img *Image) FAT(block int32) (int32, error) {
	if err := img.checkBlock(block); err != nil {
		return 0, err
	}
	return img.getFAT(block), nil
}

func (img *Image) setFAT(block, next int32) error {
	if err := img.checkBlock(block); err != nil {
		return err
	}
	if next != FATEOF {
		if err := img.checkBlock(next); err != nil {
			return err
		}
	}
	img.putFAT(block, next)
	return nil
}

func (img *Image) getFAT(block int32) int32 {
	off := SuperblockSize + int(block)*fatSlotSize
	return int32(binary.LittleEndian.Uint32(img.data[off:]))
}

func (img *Image) putFAT(block, next int32) {
	off := SuperblockSize + int(block)*fatSlotSize
	binary.LittleEndian.PutUint32(img.data[off:], uint32(next))
}

// block returns a view on the data of the given block.
func (img *Image) block(block int32) ([]byte, error) {
	if err := img.checkBlock(block); err != nil {
		return nil, err
	}
	size := int(img.BlockSize())
	start := int(img.SystemBytes()) + int(block)*size
	return img.data[start : start+size : start+size], nil
}

func (img *Image) String() string {
	return fmt.Sprintf("JFS image: %d blocks of %d bytes, %d bytes total", img.BlocksCount(), img.BlockSize(), img.TotalBytes())
}
