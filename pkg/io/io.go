package io

import (
	"fmt"
	"io"
	"io/fs"
	"os"
)

var (
	_ FileIO = (*MediaFileSystem)(nil)

	ErrFileExists = fmt.Errorf("file already exists")
)

// MediaFileSystem is the default implementation of file io using the os package
type MediaFileSystem struct{}

// Stat is a wrapper around os.Stat
func (o *MediaFileSystem) Stat(target string) (os.FileInfo, error) {
	return os.Stat(target)
}

// Rename is a wrapper around os.Rename. It refuses to clobber an existing
// target so a rename never silently destroys a file.
func (o *MediaFileSystem) Rename(source, target string) error {
	if o.FileExists(target) {
		return ErrFileExists
	}
	return os.Rename(source, target)
}

// Open is a wrapper around os.Open
func (o *MediaFileSystem) Open(name string) (*os.File, error) {
	return os.Open(name)
}

// Create is a wrapper around os.Create
func (o *MediaFileSystem) Create(name string) (io.WriteCloser, error) {
	return os.Create(name)
}

// CreateTemp is a wrapper around os.CreateTemp
func (o *MediaFileSystem) CreateTemp(dir, pattern string) (*os.File, error) {
	return os.CreateTemp(dir, pattern)
}

// Remove is a wrapper around os.Remove
func (o *MediaFileSystem) Remove(name string) error {
	return os.Remove(name)
}

// RemoveAll is a wrapper around os.RemoveAll
func (o *MediaFileSystem) RemoveAll(name string) error {
	return os.RemoveAll(name)
}

// ReadDir is a wrapper around os.ReadDir
func (o *MediaFileSystem) ReadDir(name string) ([]os.DirEntry, error) {
	return os.ReadDir(name)
}

// MkdirAll is a wrapper around os.MkdirAll
func (o *MediaFileSystem) MkdirAll(path string, mode os.FileMode) error {
	return os.MkdirAll(path, mode)
}

// WalkDir is a wrapper around fs.WalkDir
func (o *MediaFileSystem) WalkDir(fsys fs.FS, root string, fn fs.WalkDirFunc) error {
	return fs.WalkDir(fsys, root, fn)
}

// FileExists reports whether path can be stat'd
func (o *MediaFileSystem) FileExists(path string) bool {
	_, err := o.Stat(path)
	return err == nil
}
