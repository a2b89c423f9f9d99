package gojfs

import (
	"errors"
	"io"
	"os"
	"reflect"
	"sort"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/spf13/afero"
)

func testingFs(t *testing.T, paths ...string) *Fs {
	t.Helper()
	img := testingNew(t, 128, 30)
	testingTree(t, img, paths...)
	return NewFs(img)
}

func Test_splitPath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want []string
	}{
		{name: "empty", path: "", want: nil},
		{name: "dot", path: ".", want: nil},
		{name: "root", path: "/", want: nil},
		{name: "relative", path: "a/b", want: []string{"a", "b"}},
		{name: "absolute", path: "/a/b", want: []string{"a", "b"}},
		{name: "unclean", path: "//a/./c/../b/", want: []string{"a", "b"}},
		{name: "above the root", path: "/../a", want: []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := splitPath(tt.path); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitPath() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFs_Create(t *testing.T) {
	fs := testingFs(t, "/dir/", "/existing")

	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{name: "new file", path: "/new"},
		{name: "in a directory", path: "/dir/new"},
		{name: "truncates an existing file", path: "/existing"},
		{name: "missing parent", path: "/missing/new", wantErr: os.ErrNotExist},
		{name: "parent is a file", path: "/existing/new", wantErr: syscall.ENOTDIR},
		{name: "directory", path: "/dir", wantErr: syscall.EISDIR},
		{name: "name too long", path: "/" + strings.Repeat("n", 64), wantErr: syscall.ENAMETOOLONG},
		{name: "name with a NUL byte", path: "/a\x00b", wantErr: syscall.EINVAL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := fs.Create(tt.path)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Fs.Create() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				var pathErr *os.PathError
				if !errors.As(err, &pathErr) || pathErr.Path != tt.path {
					t.Errorf("Fs.Create() error = %v, want a *os.PathError for %q", err, tt.path)
				}
				return
			}

			info, err := f.Stat()
			if err != nil {
				t.Fatalf("File.Stat() error = %v", err)
			}
			if info.Size() != 0 || info.IsDir() {
				t.Errorf("File.Stat() = size %v, dir %v, want an empty file", info.Size(), info.IsDir())
			}
		})
	}
	testingCheck(t, fs.Image())
}

func TestFs_Mkdir(t *testing.T) {
	fs := testingFs(t, "/dir/", "/file")

	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{name: "new", path: "/new"},
		{name: "nested", path: "/dir/sub"},
		{name: "existing directory", path: "/dir", wantErr: os.ErrExist},
		{name: "existing file", path: "/file", wantErr: os.ErrExist},
		{name: "missing parent", path: "/a/b", wantErr: os.ErrNotExist},
		{name: "root", path: "/", wantErr: syscall.EINVAL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := fs.Mkdir(tt.path, 0755)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Fs.Mkdir() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr == nil {
				info, err := fs.Stat(tt.path)
				if err != nil || !info.IsDir() {
					t.Errorf("Fs.Stat() = %v, %v, want a directory", info, err)
				}
			}
		})
	}
	testingCheck(t, fs.Image())
}

func TestFs_MkdirAll(t *testing.T) {
	fs := testingFs(t, "/a/", "/file")

	if err := fs.MkdirAll("/a/b/c", 0755); err != nil {
		t.Fatalf("Fs.MkdirAll() error = %v", err)
	}
	if err := fs.MkdirAll("/a/b/c", 0755); err != nil {
		t.Errorf("Fs.MkdirAll() on existing directories error = %v", err)
	}
	if info, err := fs.Stat("/a/b/c"); err != nil || !info.IsDir() {
		t.Errorf("Fs.Stat() = %v, %v, want a directory", info, err)
	}
	if err := fs.MkdirAll("/file/x", 0755); !errors.Is(err, syscall.ENOTDIR) {
		t.Errorf("Fs.MkdirAll() through a file error = %v, want %v", err, syscall.ENOTDIR)
	}
	testingCheck(t, fs.Image())
}

func TestFs_OpenFile(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		flag    int
		want    string
		wantErr error
	}{
		{name: "read only", path: "/file", flag: os.O_RDONLY, want: "/file"},
		{name: "create new", path: "/new", flag: os.O_RDWR | os.O_CREATE, want: ""},
		{name: "create keeps content", path: "/file", flag: os.O_RDWR | os.O_CREATE, want: "/file"},
		{name: "truncate", path: "/file", flag: os.O_RDWR | os.O_TRUNC, want: ""},
		{name: "exclusive", path: "/file", flag: os.O_RDWR | os.O_CREATE | os.O_EXCL, wantErr: os.ErrExist},
		{name: "missing", path: "/new", flag: os.O_RDONLY, wantErr: os.ErrNotExist},
		{name: "directory for writing", path: "/dir", flag: os.O_WRONLY, wantErr: syscall.EISDIR},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := testingFs(t, "/dir/", "/file")

			f, err := fs.OpenFile(tt.path, tt.flag, 0644)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Fs.OpenFile() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			defer f.Close()

			if f.Name() != tt.path {
				t.Errorf("File.Name() = %v, want %v", f.Name(), tt.path)
			}
			got, err := afero.ReadFile(fs, tt.path)
			if err != nil || string(got) != tt.want {
				t.Errorf("content = %q, %v, want %q", got, err, tt.want)
			}
			testingCheck(t, fs.Image())
		})
	}
}

func TestFs_ReadWrite(t *testing.T) {
	fs := testingFs(t, "/dir/")
	content := pattern(1000)

	if err := afero.WriteFile(fs, "/dir/data", content, 0644); err != nil {
		t.Fatalf("afero.WriteFile() error = %v", err)
	}
	got, err := afero.ReadFile(fs, "/dir/data")
	if err != nil || !reflect.DeepEqual(got, content) {
		t.Fatalf("afero.ReadFile() = %d bytes, %v, want %d bytes", len(got), err, len(content))
	}

	f, err := fs.OpenFile("/dir/data", os.O_RDWR, 0)
	if err != nil {
		t.Fatalf("Fs.OpenFile() error = %v", err)
	}
	defer f.Close()

	// Writing past the end fills the gap with zeros.
	if _, err := f.WriteAt([]byte("end"), 1010); err != nil {
		t.Fatalf("File.WriteAt() error = %v", err)
	}
	if _, err := f.Seek(995, io.SeekStart); err != nil {
		t.Fatalf("File.Seek() error = %v", err)
	}
	rest, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("io.ReadAll() error = %v", err)
	}
	want := append(append(append([]byte(nil), content[995:]...), make([]byte, 10)...), "end"...)
	if !reflect.DeepEqual(rest, want) {
		t.Errorf("content after WriteAt() = %q, want %q", rest, want)
	}

	if err := f.Truncate(10); err != nil {
		t.Fatalf("File.Truncate() error = %v", err)
	}
	if info, _ := fs.Stat("/dir/data"); info.Size() != 10 {
		t.Errorf("size after Truncate() = %v, want 10", info.Size())
	}

	appender, err := fs.OpenFile("/dir/data", os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		t.Fatalf("Fs.OpenFile() error = %v", err)
	}
	if _, err := appender.WriteString("++"); err != nil {
		t.Fatalf("File.WriteString() error = %v", err)
	}
	got, _ = afero.ReadFile(fs, "/dir/data")
	if string(got) != string(content[:10])+"++" {
		t.Errorf("content after append = %q", got)
	}
	testingCheck(t, fs.Image())
}

func TestFs_Remove(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{name: "file", path: "/file"},
		{name: "empty directory", path: "/empty"},
		{name: "directory with content", path: "/dir", wantErr: syscall.ENOTEMPTY},
		{name: "missing", path: "/missing", wantErr: os.ErrNotExist},
		{name: "root", path: "/", wantErr: syscall.EBUSY},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := testingFs(t, "/dir/", "/dir/x", "/empty/", "/file")

			err := fs.Remove(tt.path)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Fs.Remove() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr == nil {
				if _, err := fs.Stat(tt.path); !os.IsNotExist(err) {
					t.Errorf("Fs.Stat() after Fs.Remove() error = %v, want not exist", err)
				}
			}
			testingCheck(t, fs.Image())
		})
	}
}

func TestFs_RemoveAll(t *testing.T) {
	fs := testingFs(t, "/dir/", "/dir/x", "/dir/sub/", "/dir/sub/y", "/file")
	free := testingFreeBlocks(t, fs.Image())

	if err := fs.RemoveAll("/dir"); err != nil {
		t.Fatalf("Fs.RemoveAll() error = %v", err)
	}
	if err := fs.RemoveAll("/missing"); err != nil {
		t.Errorf("Fs.RemoveAll() of a missing path error = %v", err)
	}
	if _, err := fs.Stat("/dir/sub/y"); !os.IsNotExist(err) {
		t.Errorf("Fs.Stat() error = %v, want not exist", err)
	}
	// The two entry blocks of dir, x, the entry block of sub, y and the second root block.
	if got := testingFreeBlocks(t, fs.Image()); got != free+6 {
		t.Errorf("free blocks = %v, want %v", got, free+6)
	}

	if err := fs.RemoveAll("/"); err != nil {
		t.Fatalf("Fs.RemoveAll() of the root error = %v", err)
	}
	if got := testingFreeBlocks(t, fs.Image()); got != fs.Image().BlocksCount() {
		t.Errorf("free blocks = %v, want all %v", got, fs.Image().BlocksCount())
	}
	testingCheck(t, fs.Image())
}

func TestFs_Rename(t *testing.T) {
	tests := []struct {
		name     string
		old      string
		new      string
		wantErr  error
		wantRoot []string
	}{
		{name: "in place", old: "/file", new: "/renamed", wantRoot: []string{"a", "b", "empty", "renamed"}},
		{name: "into a directory", old: "/file", new: "/a/file", wantRoot: []string{"a", "b", "empty"}},
		{name: "directory", old: "/a", new: "/b/a", wantRoot: []string{"b", "empty", "file"}},
		{name: "replace a file", old: "/file", new: "/b/y", wantRoot: []string{"a", "b", "empty"}},
		{name: "replace an empty directory", old: "/a", new: "/empty", wantRoot: []string{"b", "empty", "file"}},
		{name: "onto itself", old: "/file", new: "/file", wantRoot: []string{"a", "b", "empty", "file"}},
		{name: "directory over a file", old: "/a", new: "/file", wantErr: syscall.ENOTDIR},
		{name: "file over a directory", old: "/file", new: "/empty", wantErr: syscall.EISDIR},
		{name: "over a non-empty directory", old: "/a", new: "/b", wantErr: syscall.ENOTEMPTY},
		{name: "into itself", old: "/a", new: "/a/x/a", wantErr: syscall.EINVAL},
		{name: "onto an existing directory inside itself", old: "/a", new: "/a/x", wantErr: syscall.EINVAL},
		{name: "missing", old: "/missing", new: "/x", wantErr: os.ErrNotExist},
		{name: "missing target directory", old: "/file", new: "/missing/x", wantErr: os.ErrNotExist},
		{name: "root", old: "/", new: "/x", wantErr: syscall.EBUSY},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := testingFs(t, "/a/", "/a/x/", "/b/", "/b/y", "/empty/", "/file")
			content, _ := afero.ReadFile(fs, tt.old)
			before := append([]byte(nil), fs.Image().Bytes()...)

			err := fs.Rename(tt.old, tt.new)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Fs.Rename() error = %v, wantErr %v", err, tt.wantErr)
			}
			testingCheck(t, fs.Image())
			if tt.wantErr != nil {
				if string(before) != string(fs.Image().Bytes()) {
					t.Errorf("failed Fs.Rename() changed the image")
				}
				return
			}

			names, err := afero.ReadDir(fs, "/")
			if err != nil {
				t.Fatalf("afero.ReadDir() error = %v", err)
			}
			got := make([]string, len(names))
			for i, n := range names {
				got[i] = n.Name()
			}
			sort.Strings(got)
			if !reflect.DeepEqual(got, tt.wantRoot) {
				t.Errorf("root entries = %v, want %v", got, tt.wantRoot)
			}

			if _, err := fs.Stat(tt.new); err != nil {
				t.Errorf("Fs.Stat(%q) error = %v", tt.new, err)
			}
			if info, _ := fs.Stat(tt.new); !info.IsDir() {
				moved, err := afero.ReadFile(fs, tt.new)
				if err != nil || string(moved) != string(content) {
					t.Errorf("moved content = %q, %v, want %q", moved, err, content)
				}
			}
		})
	}
}

func TestFs_Stat(t *testing.T) {
	fs := testingFs(t, "/dir/", "/dir/file")

	tests := []struct {
		name     string
		path     string
		wantName string
		wantDir  bool
		wantSize int64
		wantErr  error
	}{
		{name: "root", path: "/", wantName: "", wantDir: true},
		{name: "directory", path: "/dir", wantName: "dir", wantDir: true},
		{name: "file", path: "dir/file", wantName: "file", wantSize: int64(len("/dir/file"))},
		{name: "missing", path: "/dir/missing", wantErr: os.ErrNotExist},
		{name: "below a file", path: "/dir/file/x", wantErr: syscall.ENOTDIR},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := fs.Stat(tt.path)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Fs.Stat() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if info.Name() != tt.wantName || info.IsDir() != tt.wantDir || info.Size() != tt.wantSize {
				t.Errorf("Fs.Stat() = %v %v %v, want %v %v %v",
					info.Name(), info.IsDir(), info.Size(), tt.wantName, tt.wantDir, tt.wantSize)
			}
		})
	}
}

func TestFs_Name(t *testing.T) {
	if got := NewFs(nil).Name(); got != "JFS" {
		t.Errorf("Fs.Name() = %v, want JFS", got)
	}
}

func TestFs_NotSupported(t *testing.T) {
	fs := testingFs(t, "/file")

	if err := fs.Chmod("/file", 0600); !errors.Is(err, ErrNotSupported) {
		t.Errorf("Fs.Chmod() error = %v, want %v", err, ErrNotSupported)
	}
	if err := fs.Chown("/file", 1, 1); !errors.Is(err, ErrNotSupported) {
		t.Errorf("Fs.Chown() error = %v, want %v", err, ErrNotSupported)
	}
	if err := fs.Chtimes("/file", time.Now(), time.Now()); !errors.Is(err, ErrNotSupported) {
		t.Errorf("Fs.Chtimes() error = %v, want %v", err, ErrNotSupported)
	}
}

func TestFs_OutOfSpace(t *testing.T) {
	img := testingNew(t, 128, 3)
	fs := NewFs(img)

	err := afero.WriteFile(fs, "/big", pattern(1000), 0644)
	if !errors.Is(err, syscall.ENOSPC) && !errors.Is(err, ErrOutOfSpace) {
		t.Fatalf("afero.WriteFile() error = %v, want no space", err)
	}
	if info, err := fs.Stat("/big"); err != nil || info.Size() != 256 {
		t.Errorf("Fs.Stat() = %v, %v, want the 256 bytes written so far", info, err)
	}
	testingCheck(t, img)
}
