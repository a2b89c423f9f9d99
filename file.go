package gojfs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/aligator/gojfs/checkpoint"
	"github.com/spf13/afero"
)

// These errors may occur while processing a file.
var (
	ErrReadFile  = errors.New("could not read file completely")
	ErrWriteFile = errors.New("could not write file completely")
	ErrSeekFile  = errors.New("could not seek inside of the file")
	ErrReadDir   = errors.New("could not read the directory")
)

// jfsFileFs provides all methods needed from the image for File.
// It mainly exists to be able to mock the image in tests.
// Generated mock using mockgen:
//  mockgen -source=file.go -destination=file_mock_test.go -package gojfs
type jfsFileFs interface {
	readFileAt(loc Location, offset int64, p []byte) (int, error)
	writeFileAt(loc Location, offset int64, p []byte) (int, error)
	truncateFile(loc Location, size int64) error
	stat(loc Location) (DirEntry, error)
	readDir(loc Location) ([]DirEntry, error)
}

var _ afero.File = (*File)(nil)

// File is an open file or directory of an image. It implements afero.File.
// Like Entry it addresses the record by location, so it must not be used after
// the record got relocated by a Remove or Rename of another entry.
type File struct {
	fs   jfsFileFs
	path string
	loc  Location
	flag int

	isDirectory bool
	offset      int64
}

func (f *File) Close() error {
	f.fs = nil
	f.path = ""
	f.loc = Location{}
	f.flag = 0
	f.isDirectory = false
	f.offset = 0

	return nil
}

func (f *File) size() (int64, error) {
	rec, err := f.fs.stat(f.loc)
	if err != nil {
		return 0, err
	}
	return int64(rec.Size), nil
}

func (f *File) Read(p []byte) (n int, err error) {
	if len(p) == 0 {
		return 0, nil
	}
	if f.isDirectory {
		return 0, checkpoint.Wrap(syscall.EISDIR, ErrReadFile)
	}

	size, err := f.size()
	if err != nil {
		return 0, checkpoint.Wrap(err, ErrReadFile)
	}

	// Reading a file if the size has been already reached, makes no sense.
	if size <= f.offset {
		return 0, io.EOF
	}

	n, err = f.fs.readFileAt(f.loc, f.offset, p)
	f.offset += int64(n)

	return n, checkpoint.Wrap(err, ErrReadFile)
}

func (f *File) ReadAt(p []byte, off int64) (n int, err error) {
	if len(p) == 0 {
		return 0, nil
	}
	if f.isDirectory {
		return 0, checkpoint.Wrap(syscall.EISDIR, ErrReadFile)
	}

	size, err := f.size()
	if err != nil {
		return 0, checkpoint.Wrap(err, ErrReadFile)
	}

	// Reading over the end makes no sense.
	if size <= off {
		return 0, io.EOF
	}

	n, err = f.fs.readFileAt(f.loc, off, p)
	if err != nil {
		return n, checkpoint.Wrap(err, ErrReadFile)
	}

	// io.ReaderAt requires an error if less than len(p) bytes are returned.
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Seek jumps to a specific offset in the file. This affects all Read and Write operations except ReadAt and WriteAt.
// May return a syscall.EINVAL error if the whence value is invalid.
// May return an afero.ErrOutOfRange error if the offset is out of range.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	size, err := f.size()
	if err != nil {
		return 0, checkpoint.Wrap(err, ErrSeekFile)
	}

	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset = f.offset + offset
	case io.SeekEnd:
		offset = size + offset
	default:
		return 0, checkpoint.Wrap(ErrSeekFile, fmt.Errorf("%w, offset: %v, whence: %v", syscall.EINVAL, offset, whence))
	}

	if offset < 0 || offset > size {
		return 0, checkpoint.Wrap(afero.ErrOutOfRange, fmt.Errorf("%w, offset: %v, whence: %v", ErrSeekFile, offset, whence))
	}

	f.offset = offset
	return offset, nil
}

func (f *File) writable() error {
	if f.isDirectory {
		return checkpoint.Wrap(syscall.EISDIR, ErrWriteFile)
	}
	if f.flag&(os.O_WRONLY|os.O_RDWR) == 0 {
		return checkpoint.Wrap(os.ErrPermission, ErrWriteFile)
	}
	return nil
}

// Write writes p at the current offset. Files opened with os.O_APPEND always write at the end.
func (f *File) Write(p []byte) (n int, err error) {
	if err := f.writable(); err != nil {
		return 0, err
	}

	if f.flag&os.O_APPEND != 0 {
		if f.offset, err = f.size(); err != nil {
			return 0, checkpoint.Wrap(err, ErrWriteFile)
		}
	}

	n, err = f.fs.writeFileAt(f.loc, f.offset, p)
	f.offset += int64(n)

	return n, checkpoint.Wrap(err, ErrWriteFile)
}

// WriteAt writes p at off. Writing past the end fills the gap with zeros.
func (f *File) WriteAt(p []byte, off int64) (n int, err error) {
	if err := f.writable(); err != nil {
		return 0, err
	}
	if off < 0 {
		return 0, checkpoint.Wrap(afero.ErrOutOfRange, ErrWriteFile)
	}

	n, err = f.fs.writeFileAt(f.loc, off, p)
	return n, checkpoint.Wrap(err, ErrWriteFile)
}

func (f *File) Name() string {
	return f.path
}

// Readdir reads the contents of a directory.
// If count > 0 at most count entries are returned and io.EOF signals the end
// of the directory. Otherwise all remaining entries are returned.
// May return syscall.ENOTDIR if the current File is no directory.
func (f *File) Readdir(count int) ([]os.FileInfo, error) {
	if !f.isDirectory {
		return nil, checkpoint.Wrap(syscall.ENOTDIR, ErrReadDir)
	}

	content, err := f.fs.readDir(f.loc)
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrReadDir)
	}

	start := int(f.offset)
	if start > len(content) {
		start = len(content)
	}
	content = content[start:]

	if count > 0 {
		if len(content) == 0 {
			return nil, io.EOF
		}
		if count < len(content) {
			content = content[:count]
		}
	}
	f.offset += int64(len(content))

	result := make([]os.FileInfo, len(content))
	for i := range content {
		result[i] = content[i].FileInfo()
	}

	return result, nil
}

func (f *File) Readdirnames(count int) ([]string, error) {
	content, err := f.Readdir(count)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(content))
	for i, entry := range content {
		names[i] = entry.Name()
	}

	return names, nil
}

func (f *File) Stat() (os.FileInfo, error) {
	rec, err := f.fs.stat(f.loc)
	if err != nil {
		return nil, err
	}
	return rec.FileInfo(), nil
}

// Sync does nothing as the image lives in memory. Persisting it is up to the owner of the Image.
func (f *File) Sync() error {
	return nil
}

func (f *File) Truncate(size int64) error {
	if err := f.writable(); err != nil {
		return err
	}
	if size < 0 {
		return checkpoint.Wrap(afero.ErrOutOfRange, ErrWriteFile)
	}
	return checkpoint.Wrap(f.fs.truncateFile(f.loc, size), ErrWriteFile)
}

func (f *File) WriteString(s string) (ret int, err error) {
	return f.Write([]byte(s))
}
