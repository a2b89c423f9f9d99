// Package dump renders the content of an image for debugging.
// It never mutates the image.
package dump

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aligator/gojfs"
)

// Tree writes every entry below dir, depth first, including its coordinate.
// File entries also list their block chain.
func Tree(w io.Writer, dir *gojfs.Entry) error {
	return tree(w, dir, 0)
}

func tree(w io.Writer, dir *gojfs.Entry, depth int) error {
	indent := strings.Repeat("  ", depth)
	for offset := uint32(0); ; offset++ {
		child, err := dir.Child(offset)
		if errors.Is(err, gojfs.ErrNoSuchEntry) {
			return nil
		}
		if err != nil {
			return err
		}

		rec, err := child.Stat()
		if err != nil {
			return err
		}

		kind := "file"
		if rec.IsDir() {
			kind = "dir"
		}
		fmt.Fprintf(w, "%s%s (offset: %d, type: %s, size: %d)\n", indent, rec.FileName(), offset, kind, rec.Size)
		fmt.Fprintf(w, "%s  coord: my block %d, offset %d, parent block %d, offset %d\n",
			indent, rec.Coord.MyBlock, rec.Coord.MyOffset, rec.Coord.ParentBlock, rec.Coord.ParentOffset)

		if rec.IsDir() {
			if err := tree(w, child, depth+1); err != nil {
				return err
			}
			continue
		}

		blocks, err := child.Image().Chain(rec.FirstDataBlock)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s  blocks: %s\n", indent, joinBlocks(blocks))
	}
}

func joinBlocks(blocks []int32) string {
	if len(blocks) == 0 {
		return "-"
	}
	parts := make([]string, len(blocks))
	for i, b := range blocks {
		parts[i] = fmt.Sprint(b)
	}
	return strings.Join(parts, ", ")
}

// FAT writes the head of the free list followed by every FAT slot.
func FAT(w io.Writer, img *gojfs.Image) error {
	fmt.Fprintln(w, "FAT:")
	fmt.Fprintf(w, "\tfree: %d\n", img.FirstFreeBlock())
	for block := int32(0); uint32(block) < img.BlocksCount(); block++ {
		next, err := img.FAT(block)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "\t%d: %d\n", block, next)
	}
	return nil
}
