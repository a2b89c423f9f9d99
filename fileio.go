package gojfs

import (
	"errors"

	"github.com/aligator/gojfs/checkpoint"
	"github.com/apex/log"
)

// ErrBadOffset is returned for offsets outside of the valid range of an operation.
var ErrBadOffset = errors.New("bad offset")

// Write writes data to the file e starting at offset, which has to be in [0, size].
// Writing at offset == size appends. If the image runs out of blocks the bytes
// written so far are kept and the returned count reflects them.
func (e *Entry) Write(offset uint32, data []byte) (int, error) {
	n, err := e.img.write(e.loc, offset, data, uint32(len(data)))
	return int(n), err
}

// Fill writes length times FillByte to the file e starting at offset.
func (e *Entry) Fill(offset, length uint32) (int, error) {
	n, err := e.img.write(e.loc, offset, nil, length)
	return int(n), err
}

// Read copies up to len(p) bytes of the file e starting at offset into p.
// Reading at or past the end returns 0 without an error.
func (e *Entry) Read(offset uint32, p []byte) (int, error) {
	n, err := e.img.read(e.loc, offset, p)
	return int(n), err
}

// Resize truncates or zero-extends the file e to newSize bytes.
func (e *Entry) Resize(newSize uint32) error {
	return e.img.resize(e.loc, newSize)
}

func (img *Image) loadFile(loc Location) (DirEntry, error) {
	rec, err := img.loadEntry(loc)
	if err != nil {
		return rec, err
	}
	if !rec.IsFile() {
		return rec, checkpoint.Errorf(ErrNotAFile, "%q", rec.FileName())
	}
	return rec, nil
}

// write is the sequential writer behind Write, Fill and Resize.
// If data is nil, length FillByte bytes are written instead.
func (img *Image) write(loc Location, offset uint32, data []byte, length uint32) (written uint32, err error) {
	rec, err := img.loadFile(loc)
	if err != nil {
		return 0, err
	}
	if offset > rec.Size {
		return 0, checkpoint.Errorf(ErrBadOffset, "write at %d of %d bytes", offset, rec.Size)
	}
	if length == 0 {
		return 0, nil
	}
	if uint64(offset)+uint64(length) > uint64(^uint32(0)) {
		return 0, checkpoint.Errorf(ErrBadOffset, "write of %d bytes at %d overflows the file size", length, offset)
	}

	// The record is stored on every exit so a partial write leaves chain and size consistent.
	defer func() {
		if storeErr := img.storeEntry(loc, rec); storeErr != nil && err == nil {
			err = storeErr
		}
	}()

	blockSize := img.BlockSize()

	if rec.FirstDataBlock == FATEOF {
		block, err := img.allocateBlock()
		if err != nil {
			return 0, err
		}
		if err := img.appendToChain(&rec, block); err != nil {
			return 0, err
		}
	}

	// Walk to the block containing offset. If offset == size lies exactly on
	// a block boundary that block does not exist yet.
	current := rec.FirstDataBlock
	for i := uint32(0); i < offset/blockSize; i++ {
		next, err := img.next(current)
		if err != nil {
			return 0, err
		}
		if next == FATEOF {
			if next, err = img.growChain(current); err != nil {
				return 0, err
			}
		}
		current = next
	}

	within := offset % blockSize
	for written < length {
		if within == blockSize {
			next, err := img.next(current)
			if err != nil {
				return written, err
			}
			if next == FATEOF {
				if next, err = img.growChain(current); err != nil {
					img.log.WithFields(log.Fields{
						"file":    rec.FileName(),
						"written": written,
						"wanted":  length,
					}).Debug("write stopped early")
					return written, err
				}
			}
			current = next
			within = 0
		}

		buf, err := img.block(current)
		if err != nil {
			return written, err
		}

		n := blockSize - within
		if remaining := length - written; remaining < n {
			n = remaining
		}

		dst := buf[within : within+n]
		if data == nil {
			for i := range dst {
				dst[i] = FillByte
			}
		} else {
			copy(dst, data[written:written+n])
		}

		written += n
		within += n
		if end := offset + written; end > rec.Size {
			rec.Size = end
		}
	}

	return written, nil
}

// read copies file content starting at offset into p.
func (img *Image) read(loc Location, offset uint32, p []byte) (uint32, error) {
	rec, err := img.loadFile(loc)
	if err != nil {
		return 0, err
	}
	if offset >= rec.Size || len(p) == 0 {
		return 0, nil
	}

	length := rec.Size - offset
	if uint64(len(p)) < uint64(length) {
		length = uint32(len(p))
	}

	blockSize := img.BlockSize()
	current, err := img.walk(rec.FirstDataBlock, offset/blockSize)
	if err != nil {
		return 0, err
	}

	var done uint32
	within := offset % blockSize
	for done < length {
		if within == blockSize {
			if current, err = img.walk(current, 1); err != nil {
				return done, err
			}
			within = 0
		}

		buf, err := img.block(current)
		if err != nil {
			return done, err
		}

		n := copy(p[done:length], buf[within:])
		done += uint32(n)
		within += uint32(n)
	}

	return done, nil
}

// resize truncates or zero-extends the file at loc.
func (img *Image) resize(loc Location, newSize uint32) error {
	rec, err := img.loadFile(loc)
	if err != nil {
		return err
	}
	if newSize == rec.Size {
		return nil
	}
	if newSize > rec.Size {
		_, err := img.write(loc, rec.Size, nil, newSize-rec.Size)
		return err
	}

	blockSize := img.BlockSize()
	if newSize == 0 {
		if err := img.freeChain(rec.FirstDataBlock); err != nil {
			return err
		}
		rec.FirstDataBlock = FATEOF
	} else {
		// Number of blocks still needed, the last one becomes the new tail.
		keep := (newSize + blockSize - 1) / blockSize
		tail, err := img.walk(rec.FirstDataBlock, keep-1)
		if err != nil {
			return err
		}
		rest, err := img.next(tail)
		if err != nil {
			return err
		}
		if err := img.setFAT(tail, FATEOF); err != nil {
			return err
		}
		if err := img.freeChain(rest); err != nil {
			return err
		}
	}

	rec.Size = newSize
	return img.storeEntry(loc, rec)
}
