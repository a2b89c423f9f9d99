package gojfs

import (
	"errors"
	"fmt"

	"github.com/aligator/gojfs/checkpoint"
	"go.uber.org/multierr"
)

// ErrInconsistent is the base of all problems reported by Check.
var ErrInconsistent = errors.New("image is inconsistent")

// Check walks the whole image and verifies its structural invariants:
//  - the free list is acyclic,
//  - every block is either free or owned by exactly one chain,
//  - chain lengths match the sizes of their entries,
//  - every record knows its own location and the one of its parent.
// All problems found are combined into the returned error, use
// multierr.Errors to get them one by one.
func (img *Image) Check() error {
	c := checker{
		img:   img,
		owner: make([]string, img.BlocksCount()),
	}

	free, err := img.Chain(img.FirstFreeBlock())
	if err != nil {
		c.report("free list: %v", err)
	}
	c.claim("<free>", free)

	root, err := img.loadEntry(RootLocation)
	if err != nil {
		return checkpoint.Wrap(err, ErrInconsistent)
	}
	if root.Coord.Self() != RootLocation || root.Coord.Parent() != RootLocation {
		c.report("root has coordinate %+v", root.Coord)
	}
	c.entry("/", RootLocation, root)

	for block, owner := range c.owner {
		if owner == "" {
			c.report("block %d is neither free nor in use", block)
		}
	}

	return c.errs
}

type checker struct {
	img   *Image
	owner []string
	errs  error
}

func (c *checker) report(format string, args ...interface{}) {
	c.errs = multierr.Append(c.errs, fmt.Errorf("%w: "+format, append([]interface{}{ErrInconsistent}, args...)...))
}

func (c *checker) claim(owner string, blocks []int32) {
	for _, block := range blocks {
		if block < 0 || int(block) >= len(c.owner) {
			c.report("%s: block %d out of range", owner, block)
			continue
		}
		if c.owner[block] != "" {
			c.report("block %d is used by %s and %s", block, c.owner[block], owner)
			continue
		}
		c.owner[block] = owner
	}
}

func (c *checker) entry(path string, loc Location, rec DirEntry) {
	blocks, err := c.img.Chain(rec.FirstDataBlock)
	if err != nil {
		c.report("%s: %v", path, err)
		return
	}
	c.claim(path, blocks)

	var unit uint32
	if rec.IsDir() {
		unit = c.img.EntriesPerBlock()
	} else {
		unit = c.img.BlockSize()
	}
	if unit == 0 {
		if rec.Size != 0 {
			c.report("%s: %d entries although none fit into a block", path, rec.Size)
		}
		return
	}
	if want := (rec.Size + unit - 1) / unit; uint32(len(blocks)) != want {
		c.report("%s: size %d needs %d blocks but the chain has %d", path, rec.Size, want, len(blocks))
	}

	if !rec.IsDir() || uint32(len(blocks))*unit < rec.Size {
		return
	}

	for i := uint32(0); i < rec.Size; i++ {
		childLoc := Location{Block: blocks[i/unit], Offset: i % unit}
		child, err := c.img.loadEntry(childLoc)
		if err != nil {
			c.report("%s: entry %d: %v", path, i, err)
			continue
		}

		childPath := path + child.FileName()
		if child.IsDir() {
			childPath += "/"
		}
		if child.Coord.Self() != childLoc {
			c.report("%s: stored at %+v but claims %+v", childPath, childLoc, child.Coord.Self())
		}
		if child.Coord.Parent() != loc {
			c.report("%s: parent is %+v but claims %+v", childPath, loc, child.Coord.Parent())
		}
		c.entry(childPath, childLoc, child)
	}
}

// CheckReport splits the error returned by Check into one line per problem.
func CheckReport(err error) []string {
	var lines []string
	for _, e := range multierr.Errors(err) {
		lines = append(lines, e.Error())
	}
	return lines
}
