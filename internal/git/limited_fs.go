package git

import (
	"fmt"
	"os"
	"sync"

	billy "github.com/go-git/go-billy/v5"
)

// LimitedFs bounds the number of files and total bytes written through a
// billy filesystem, so an in-memory clone cannot grow unbounded.
type LimitedFs struct {
	billy.Filesystem

	maxFiles      int
	totalFileSize int64

	mu    sync.Mutex
	files int
	bytes int64
}

// NewLimitedFs wraps fs with file-count and total-size limits.
func NewLimitedFs(fs billy.Filesystem, maxFiles int, totalFileSize int64) *LimitedFs {
	return &LimitedFs{
		Filesystem:    fs,
		maxFiles:      maxFiles,
		totalFileSize: totalFileSize,
	}
}

// Create creates a file, counting it against the file limit.
func (fs *LimitedFs) Create(filename string) (billy.File, error) {
	if err := fs.countFile(); err != nil {
		return nil, err
	}
	f, err := fs.Filesystem.Create(filename)
	if err != nil {
		return nil, err
	}
	return &limitedFile{File: f, fs: fs}, nil
}

// OpenFile opens a file, counting creations against the file limit.
func (fs *LimitedFs) OpenFile(filename string, flag int, perm os.FileMode) (billy.File, error) {
	if flag&os.O_CREATE != 0 {
		if err := fs.countFile(); err != nil {
			return nil, err
		}
	}
	f, err := fs.Filesystem.OpenFile(filename, flag, perm)
	if err != nil {
		return nil, err
	}
	return &limitedFile{File: f, fs: fs}, nil
}

func (fs *LimitedFs) countFile() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.files >= fs.maxFiles {
		return fmt.Errorf("file limit of %d exceeded", fs.maxFiles)
	}
	fs.files++
	return nil
}

func (fs *LimitedFs) countBytes(n int) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.bytes+int64(n) > fs.totalFileSize {
		return fmt.Errorf("total size limit of %d bytes exceeded", fs.totalFileSize)
	}
	fs.bytes += int64(n)
	return nil
}

type limitedFile struct {
	billy.File
	fs *LimitedFs
}

func (f *limitedFile) Write(p []byte) (int, error) {
	if err := f.fs.countBytes(len(p)); err != nil {
		return 0, err
	}
	return f.File.Write(p)
}
