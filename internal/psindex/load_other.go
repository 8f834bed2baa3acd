//go:build !unix

package psindex

import "os"

// LoadIndexFile reads and decodes the index file.
func LoadIndexFile(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadIndex(f)
}
