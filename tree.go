package gojfs

import (
	"errors"

	"github.com/aligator/gojfs/checkpoint"
	"github.com/apex/log"
)

// These errors may occur while restructuring the directory tree.
var (
	ErrMoveRoot     = errors.New("the root cannot be moved")
	ErrMoveIntoSelf = errors.New("a directory cannot be moved into itself")
)

// Rename replaces the name of the entry in place.
func (e *Entry) Rename(name string) error {
	if err := checkName(name); err != nil {
		return err
	}

	rec, err := e.Stat()
	if err != nil {
		return err
	}
	rec.setName(name)
	return e.img.storeEntry(e.loc, rec)
}

// Move transfers the entry into the directory newParent. The content chain is
// handed over to a new record, so no data is copied. Afterwards e points to
// the new record.
func (e *Entry) Move(newParent *Entry) error {
	loc, err := e.img.move(e.loc, newParent.loc)
	if err != nil {
		return err
	}
	e.loc = loc
	return nil
}

// Remove deletes the entry. Directories are removed recursively.
// Removing the root only removes its content.
// Other handles to the last entry of the same directory become invalid, as
// that record is relocated into the freed slot.
func (e *Entry) Remove() error {
	return e.img.remove(e.loc)
}

// within reports whether the record at loc is the record at ancestor or one
// of its descendants.
func (img *Image) within(loc, ancestor Location) (bool, error) {
	for cursor := loc; ; {
		if cursor == ancestor {
			return true, nil
		}
		if cursor.IsRoot() {
			return false, nil
		}
		rec, err := img.loadEntry(cursor)
		if err != nil {
			return false, err
		}
		cursor = rec.Coord.Parent()
	}
}

func (img *Image) move(loc, newParentLoc Location) (Location, error) {
	if loc.IsRoot() {
		return Location{}, checkpoint.From(ErrMoveRoot)
	}

	old, err := img.loadEntry(loc)
	if err != nil {
		return Location{}, err
	}

	// The new parent must not be the entry itself or one of its descendants.
	inside, err := img.within(newParentLoc, loc)
	if err != nil {
		return Location{}, err
	}
	if inside {
		return Location{}, checkpoint.Errorf(ErrMoveIntoSelf, "%q", old.FileName())
	}

	newLoc, err := img.createEntry(newParentLoc, old.FileName(), old.Flags)
	if err != nil {
		return Location{}, err
	}

	moved, err := img.loadEntry(newLoc)
	if err != nil {
		return Location{}, err
	}
	moved.FirstDataBlock = old.FirstDataBlock
	moved.Size = old.Size
	if err := img.storeEntry(newLoc, moved); err != nil {
		return Location{}, err
	}
	if moved.IsDir() {
		if err := img.adoptChildren(newLoc); err != nil {
			return Location{}, err
		}
	}

	from, relocated, err := img.detach(loc)
	if err != nil {
		return Location{}, err
	}
	// Moving inside the same directory: the new record was the last one and
	// now lives in the slot of the old one.
	if relocated && from == newLoc {
		newLoc = loc
	}

	img.log.WithFields(log.Fields{
		"name":         old.FileName(),
		"from_block":   loc.Block,
		"from_offset":  loc.Offset,
		"to_block":     newLoc.Block,
		"to_offset":    newLoc.Offset,
		"parent_block": newParentLoc.Block,
	}).Debug("moved entry")
	return newLoc, nil
}

func (img *Image) remove(loc Location) error {
	rec, err := img.loadEntry(loc)
	if err != nil {
		return err
	}

	if rec.IsDir() {
		// Always remove the last child, so nothing has to be relocated and the
		// directory blocks are freed one after another as they become empty.
		for rec.Size > 0 {
			child, err := img.lookupByOffset(loc, rec.Size-1)
			if err != nil {
				return err
			}
			if err := img.remove(child); err != nil {
				return err
			}
			if rec, err = img.loadEntry(loc); err != nil {
				return err
			}
		}
	} else {
		if err := img.freeChain(rec.FirstDataBlock); err != nil {
			return err
		}
		rec.FirstDataBlock = FATEOF
		rec.Size = 0
		if err := img.storeEntry(loc, rec); err != nil {
			return err
		}
	}

	if loc.IsRoot() {
		return nil
	}

	_, _, err = img.detach(loc)
	return err
}

// detach removes the record at loc from its parent without touching the
// chain it owns. The last record of the parent is moved into the freed slot
// to keep the directory free of holes. If that happened, relocated is true and
// from is the former location of the moved record.
func (img *Image) detach(loc Location) (from Location, relocated bool, err error) {
	rec, err := img.loadEntry(loc)
	if err != nil {
		return Location{}, false, err
	}

	parentLoc := rec.Coord.Parent()
	parent, err := img.loadDir(parentLoc)
	if err != nil {
		return Location{}, false, err
	}
	if parent.Size == 0 {
		return Location{}, false, checkpoint.Errorf(ErrCorruptImage, "%q has an empty parent", rec.FileName())
	}

	lastLoc, err := img.lookupByOffset(parentLoc, parent.Size-1)
	if err != nil {
		return Location{}, false, err
	}

	if lastLoc != loc {
		last, err := img.loadEntry(lastLoc)
		if err != nil {
			return Location{}, false, err
		}
		last.Coord.MyBlock = loc.Block
		last.Coord.MyOffset = loc.Offset
		if err := img.storeEntry(loc, last); err != nil {
			return Location{}, false, err
		}
		if last.IsDir() {
			if err := img.adoptChildren(loc); err != nil {
				return Location{}, false, err
			}
		}
		from, relocated = lastLoc, true

		img.log.WithFields(log.Fields{
			"name":        last.FileName(),
			"from_block":  lastLoc.Block,
			"from_offset": lastLoc.Offset,
			"to_block":    loc.Block,
			"to_offset":   loc.Offset,
		}).Debug("relocated entry")
	}

	parent.Size--

	// The slot of the former last record was the only one used in its block.
	if parent.Size%img.EntriesPerBlock() == 0 {
		if parent.Size == 0 {
			parent.FirstDataBlock = FATEOF
		} else {
			prev, err := img.walk(parent.FirstDataBlock, parent.Size/img.EntriesPerBlock()-1)
			if err != nil {
				return Location{}, false, err
			}
			if err := img.setFAT(prev, FATEOF); err != nil {
				return Location{}, false, err
			}
		}
		if err := img.freeBlock(lastLoc.Block); err != nil {
			return Location{}, false, err
		}
	}

	if err := img.storeEntry(parentLoc, parent); err != nil {
		return Location{}, false, err
	}
	return from, relocated, nil
}
