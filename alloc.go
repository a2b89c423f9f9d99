package gojfs

import (
	"errors"

	"github.com/aligator/gojfs/checkpoint"
	"github.com/apex/log"
)

// These errors may occur while handing out or walking blocks.
var (
	ErrOutOfSpace   = errors.New("no free blocks left")
	ErrCorruptChain = errors.New("block chain is longer than the image (cycle?)")
)

// allocateBlock pops the head of the free list. The block is zeroed but not
// yet linked anywhere, so the caller has to append it to a chain right away.
func (img *Image) allocateBlock() (int32, error) {
	block := img.FirstFreeBlock()
	if block == FATEOF {
		return FATEOF, checkpoint.From(ErrOutOfSpace)
	}

	next, err := img.FAT(block)
	if err != nil {
		return FATEOF, checkpoint.Wrap(err, ErrCorruptImage)
	}
	img.setFirstFreeBlock(next)

	data, err := img.block(block)
	if err != nil {
		return FATEOF, err
	}
	for i := range data {
		data[i] = 0
	}

	img.log.WithField("block", block).Debug("allocated block")
	return block, nil
}

// freeBlock pushes block onto the free list. Negative numbers are ignored.
func (img *Image) freeBlock(block int32) error {
	if block < 0 {
		return nil
	}
	if err := img.setFAT(block, img.FirstFreeBlock()); err != nil {
		return err
	}
	img.setFirstFreeBlock(block)

	img.log.WithField("block", block).Debug("freed block")
	return nil
}

// appendToChain links block as new tail of the chain of e.
// The caller is responsible for storing e afterwards.
func (img *Image) appendToChain(e *DirEntry, block int32) error {
	if e.FirstDataBlock == FATEOF {
		e.FirstDataBlock = block
		return img.setFAT(block, FATEOF)
	}

	tail, err := img.chainTail(e.FirstDataBlock)
	if err != nil {
		return err
	}
	if err := img.setFAT(tail, block); err != nil {
		return err
	}
	return img.setFAT(block, FATEOF)
}

// growChain allocates a block and links it after tail.
func (img *Image) growChain(tail int32) (int32, error) {
	block, err := img.allocateBlock()
	if err != nil {
		return FATEOF, err
	}
	if err := img.setFAT(tail, block); err != nil {
		return FATEOF, err
	}
	if err := img.setFAT(block, FATEOF); err != nil {
		return FATEOF, err
	}
	return block, nil
}

// next returns the successor of block in its chain.
func (img *Image) next(block int32) (int32, error) {
	next, err := img.FAT(block)
	if err != nil {
		return FATEOF, checkpoint.Wrap(err, ErrCorruptChain)
	}
	return next, nil
}

// walk follows the chain starting at head n times and returns the reached block.
func (img *Image) walk(head int32, n uint32) (int32, error) {
	block := head
	for i := uint32(0); i < n; i++ {
		next, err := img.next(block)
		if err != nil {
			return FATEOF, err
		}
		if next == FATEOF {
			return FATEOF, checkpoint.Errorf(ErrCorruptChain, "chain from %d ends after %d of %d blocks", head, i+1, n+1)
		}
		block = next
	}
	return block, nil
}

// chainTail returns the last block of the chain starting at head.
func (img *Image) chainTail(head int32) (int32, error) {
	var tail int32
	err := img.eachBlock(head, func(block int32) error {
		tail = block
		return nil
	})
	return tail, err
}

// eachBlock calls fn for every block of the chain starting at head.
// The walk is bounded by the number of blocks so cycles are reported instead of looping.
func (img *Image) eachBlock(head int32, fn func(block int32) error) error {
	limit := img.BlocksCount()
	block := head
	for visited := uint32(0); block != FATEOF; visited++ {
		if visited >= limit {
			return checkpoint.Errorf(ErrCorruptChain, "chain from %d", head)
		}
		next, err := img.next(block)
		if err != nil {
			return err
		}
		if err := fn(block); err != nil {
			return err
		}
		block = next
	}
	return nil
}

// Chain returns all blocks of the chain starting at head.
func (img *Image) Chain(head int32) ([]int32, error) {
	var blocks []int32
	err := img.eachBlock(head, func(block int32) error {
		blocks = append(blocks, block)
		return nil
	})
	return blocks, err
}

// freeChain returns every block of the chain starting at head to the free list.
func (img *Image) freeChain(head int32) error {
	blocks, err := img.Chain(head)
	if err != nil {
		return err
	}
	for _, block := range blocks {
		if err := img.freeBlock(block); err != nil {
			return err
		}
	}

	if len(blocks) > 0 {
		img.log.WithFields(log.Fields{
			"head":   head,
			"blocks": len(blocks),
		}).Debug("freed chain")
	}
	return nil
}

// FreeBlocks counts the blocks in the free list.
func (img *Image) FreeBlocks() (uint32, error) {
	blocks, err := img.Chain(img.FirstFreeBlock())
	return uint32(len(blocks)), err
}
