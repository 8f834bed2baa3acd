//go:build unix

package psindex

import (
	"os"

	"golang.org/x/sys/unix"
)

// LoadIndexFile maps the index file read-only and decodes it. Files that
// cannot be mapped are read normally.
func LoadIndexFile(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := int(info.Size())
	if size == 0 {
		return DecodeIndex(nil)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		LogDebug("mmap failed, reading index", "path", path, "error", err)
		return ReadIndex(f)
	}
	defer func() {
		if err := unix.Munmap(data); err != nil {
			LogWarn("munmap index", "path", path, "error", err)
		}
	}()
	return DecodeIndex(data)
}
