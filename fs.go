package gojfs

import (
	"errors"
	"io"
	"math"
	"os"
	"path"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/aligator/gojfs/checkpoint"
	"github.com/spf13/afero"
)

// ErrNotSupported is returned for operations JFS has no data for, like permissions and timestamps.
var ErrNotSupported = errors.New("operation not supported by jfs")

var (
	_ afero.Fs  = (*Fs)(nil)
	_ jfsFileFs = (*Image)(nil)
)

// Fs provides path based access to an image. It implements afero.Fs.
// Names are unique inside a directory on this layer.
type Fs struct {
	img *Image
}

// NewFs wraps img as afero.Fs.
func NewFs(img *Image) *Fs {
	return &Fs{img: img}
}

// Image returns the wrapped image.
func (fs *Fs) Image() *Image {
	return fs.img
}

// splitPath converts a slash or OS separated path into its elements.
// "", ".", and "/" all address the root.
func splitPath(name string) []string {
	name = path.Clean("/" + filepath.ToSlash(name))
	if name == "/" {
		return nil
	}
	return strings.Split(name[1:], "/")
}

// pathError converts engine errors into the errors the os package would return.
func pathError(op, name string, err error) error {
	switch {
	case errors.Is(err, ErrNoSuchEntry):
		err = os.ErrNotExist
	case errors.Is(err, ErrNotADirectory):
		err = syscall.ENOTDIR
	case errors.Is(err, ErrNotAFile):
		err = syscall.EISDIR
	case errors.Is(err, ErrOutOfSpace):
		err = syscall.ENOSPC
	case errors.Is(err, ErrNameTooLong):
		err = syscall.ENAMETOOLONG
	case errors.Is(err, ErrNameInvalid):
		err = syscall.EINVAL
	}
	return &os.PathError{Op: op, Path: name, Err: err}
}

// resolve walks the directory tree along name.
func (fs *Fs) resolve(name string) (*Entry, error) {
	current := fs.img.Root()
	for _, part := range splitPath(name) {
		next, err := current.Lookup(part)
		if err != nil {
			return nil, err
		}
		current = next
	}
	return current, nil
}

// Entry returns the entry at name.
func (fs *Fs) Entry(name string) (*Entry, error) {
	entry, err := fs.resolve(name)
	if err != nil {
		return nil, pathError("lookup", name, err)
	}
	return entry, nil
}

// resolveParent resolves the directory containing name and returns it with the base name.
func (fs *Fs) resolveParent(name string) (*Entry, string, error) {
	parts := splitPath(name)
	if len(parts) == 0 {
		return nil, "", checkpoint.From(syscall.EINVAL)
	}

	parent, err := fs.resolve(strings.Join(parts[:len(parts)-1], "/"))
	if err != nil {
		return nil, "", err
	}
	rec, err := parent.Stat()
	if err != nil {
		return nil, "", err
	}
	if !rec.IsDir() {
		return nil, "", checkpoint.From(ErrNotADirectory)
	}
	return parent, parts[len(parts)-1], nil
}

func (fs *Fs) Create(name string) (afero.File, error) {
	return fs.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
}

func (fs *Fs) Mkdir(name string, perm os.FileMode) error {
	parent, base, err := fs.resolveParent(name)
	if err != nil {
		return pathError("mkdir", name, err)
	}
	if _, err := parent.Lookup(base); err == nil {
		return pathError("mkdir", name, os.ErrExist)
	} else if !errors.Is(err, ErrNoSuchEntry) {
		return pathError("mkdir", name, err)
	}

	if _, err := parent.Create(base, true); err != nil {
		return pathError("mkdir", name, err)
	}
	return nil
}

func (fs *Fs) MkdirAll(name string, perm os.FileMode) error {
	current := fs.img.Root()
	for _, part := range splitPath(name) {
		next, err := current.Lookup(part)
		if errors.Is(err, ErrNoSuchEntry) {
			next, err = current.Create(part, true)
		}
		if err != nil {
			return pathError("mkdir", name, err)
		}

		rec, err := next.Stat()
		if err != nil {
			return pathError("mkdir", name, err)
		}
		if !rec.IsDir() {
			return pathError("mkdir", name, syscall.ENOTDIR)
		}
		current = next
	}
	return nil
}

func (fs *Fs) Open(name string) (afero.File, error) {
	return fs.OpenFile(name, os.O_RDONLY, 0)
}

// OpenFile supports os.O_CREATE, os.O_EXCL, os.O_TRUNC and os.O_APPEND.
// perm is ignored as JFS has no permissions.
func (fs *Fs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	entry, err := fs.resolve(name)
	switch {
	case err == nil:
		if flag&(os.O_CREATE|os.O_EXCL) == os.O_CREATE|os.O_EXCL {
			return nil, pathError("open", name, os.ErrExist)
		}
	case errors.Is(err, ErrNoSuchEntry) && flag&os.O_CREATE != 0:
		parent, base, err := fs.resolveParent(name)
		if err != nil {
			return nil, pathError("open", name, err)
		}
		if entry, err = parent.Create(base, false); err != nil {
			return nil, pathError("open", name, err)
		}
	default:
		return nil, pathError("open", name, err)
	}

	rec, err := entry.Stat()
	if err != nil {
		return nil, pathError("open", name, err)
	}

	writable := flag&(os.O_WRONLY|os.O_RDWR) != 0
	if rec.IsDir() && writable {
		return nil, pathError("open", name, syscall.EISDIR)
	}
	if writable && flag&os.O_TRUNC != 0 {
		if err := entry.Resize(0); err != nil {
			return nil, pathError("open", name, err)
		}
	}

	return &File{
		fs:          fs.img,
		path:        name,
		loc:         entry.Location(),
		flag:        flag,
		isDirectory: rec.IsDir(),
	}, nil
}

// Remove deletes a file or an empty directory.
func (fs *Fs) Remove(name string) error {
	entry, err := fs.resolve(name)
	if err != nil {
		return pathError("remove", name, err)
	}
	if entry.IsRoot() {
		return pathError("remove", name, syscall.EBUSY)
	}

	rec, err := entry.Stat()
	if err != nil {
		return pathError("remove", name, err)
	}
	if rec.IsDir() && rec.Size > 0 {
		return pathError("remove", name, syscall.ENOTEMPTY)
	}

	if err := entry.Remove(); err != nil {
		return pathError("remove", name, err)
	}
	return nil
}

// RemoveAll deletes name and everything below it. A missing name is no error.
// Removing the root empties the image.
func (fs *Fs) RemoveAll(name string) error {
	entry, err := fs.resolve(name)
	if errors.Is(err, ErrNoSuchEntry) {
		return nil
	}
	if err != nil {
		return pathError("removeall", name, err)
	}

	if err := entry.Remove(); err != nil {
		return pathError("removeall", name, err)
	}
	return nil
}

// Rename moves oldname to newname. An existing file or empty directory at newname is replaced.
func (fs *Fs) Rename(oldname, newname string) error {
	entry, err := fs.resolve(oldname)
	if err != nil {
		return pathError("rename", oldname, err)
	}
	if entry.IsRoot() {
		return pathError("rename", oldname, syscall.EBUSY)
	}
	newParent, base, err := fs.resolveParent(newname)
	if err != nil {
		return pathError("rename", newname, err)
	}
	inside, err := fs.img.within(newParent.Location(), entry.Location())
	if err != nil {
		return pathError("rename", newname, err)
	}
	if inside {
		return pathError("rename", newname, syscall.EINVAL)
	}

	if target, err := newParent.Lookup(base); err == nil {
		if target.Location() == entry.Location() {
			return nil
		}
		if err := fs.checkReplace(entry, target); err != nil {
			return pathError("rename", newname, err)
		}
		if err := target.Remove(); err != nil {
			return pathError("rename", newname, err)
		}

		// The removal may have relocated one of the involved records.
		if entry, err = fs.resolve(oldname); err != nil {
			return pathError("rename", oldname, err)
		}
		if newParent, _, err = fs.resolveParent(newname); err != nil {
			return pathError("rename", newname, err)
		}
	} else if !errors.Is(err, ErrNoSuchEntry) {
		return pathError("rename", newname, err)
	}

	parent, err := entry.Parent()
	if err != nil {
		return pathError("rename", oldname, err)
	}
	if parent.Location() != newParent.Location() {
		if err := entry.Move(newParent); err != nil {
			if errors.Is(err, ErrMoveIntoSelf) {
				err = syscall.EINVAL
			}
			return pathError("rename", newname, err)
		}
	}

	if err := entry.Rename(base); err != nil {
		return pathError("rename", newname, err)
	}
	return nil
}

// checkReplace applies the os.Rename rules for replacing target by entry.
func (fs *Fs) checkReplace(entry, target *Entry) error {
	src, err := entry.Stat()
	if err != nil {
		return err
	}
	dst, err := target.Stat()
	if err != nil {
		return err
	}

	switch {
	case dst.IsDir() && !src.IsDir():
		return syscall.EISDIR
	case !dst.IsDir() && src.IsDir():
		return syscall.ENOTDIR
	case dst.IsDir() && dst.Size > 0:
		return syscall.ENOTEMPTY
	}
	return nil
}

func (fs *Fs) Stat(name string) (os.FileInfo, error) {
	entry, err := fs.resolve(name)
	if err != nil {
		return nil, pathError("stat", name, err)
	}
	rec, err := entry.Stat()
	if err != nil {
		return nil, pathError("stat", name, err)
	}
	return rec.FileInfo(), nil
}

func (fs *Fs) Name() string {
	return "JFS"
}

func (fs *Fs) Chmod(name string, mode os.FileMode) error {
	return pathError("chmod", name, ErrNotSupported)
}

func (fs *Fs) Chown(name string, uid, gid int) error {
	return pathError("chown", name, ErrNotSupported)
}

func (fs *Fs) Chtimes(name string, atime time.Time, mtime time.Time) error {
	return pathError("chtimes", name, ErrNotSupported)
}

// The following methods implement jfsFileFs for File.

func (img *Image) readFileAt(loc Location, offset int64, p []byte) (int, error) {
	if offset < 0 {
		return 0, checkpoint.Errorf(ErrBadOffset, "read at %d", offset)
	}
	if offset > math.MaxUint32 {
		return 0, io.EOF
	}
	n, err := img.read(loc, uint32(offset), p)
	return int(n), err
}

func (img *Image) writeFileAt(loc Location, offset int64, p []byte) (int, error) {
	if offset < 0 || offset+int64(len(p)) > math.MaxUint32 {
		return 0, checkpoint.Errorf(ErrBadOffset, "write of %d bytes at %d", len(p), offset)
	}

	rec, err := img.loadFile(loc)
	if err != nil {
		return 0, err
	}
	if uint32(offset) > rec.Size {
		if err := img.resize(loc, uint32(offset)); err != nil {
			return 0, err
		}
	}

	n, err := img.write(loc, uint32(offset), p, uint32(len(p)))
	return int(n), err
}

func (img *Image) truncateFile(loc Location, size int64) error {
	if size < 0 || size > math.MaxUint32 {
		return checkpoint.Errorf(ErrBadOffset, "truncate to %d", size)
	}
	return img.resize(loc, uint32(size))
}

func (img *Image) stat(loc Location) (DirEntry, error) {
	return img.loadEntry(loc)
}

func (img *Image) readDir(loc Location) ([]DirEntry, error) {
	var entries []DirEntry
	err := img.eachChild(loc, func(_ Location, rec DirEntry) error {
		entries = append(entries, rec)
		return nil
	})
	return entries, err
}
