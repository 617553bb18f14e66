package journal

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// AllocateFilename returns a name that does not exist in dir. The desired
// name is returned unchanged when it is free; otherwise "stem(N)ext" is
// probed for N = 1, 2, ... until a free name is found.
//
// The file is not created. Callers that may race with other writers must
// serialize allocation and creation themselves.
func AllocateFilename(dir, name string) (string, error) {
	taken, err := exists(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	if !taken {
		return name, nil
	}

	stem, ext := splitExt(name)
	for counter := 1; ; counter++ {
		candidate := fmt.Sprintf("%s(%d)%s", stem, counter, ext)
		taken, err := exists(filepath.Join(dir, candidate))
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
}

// splitExt splits name into stem and extension. A leading dot is part of the
// stem, so ".env" has no extension.
func splitExt(name string) (stem, ext string) {
	ext = filepath.Ext(name)
	stem = strings.TrimSuffix(name, ext)
	if strings.Trim(stem, ".") == "" {
		return name, ""
	}
	return stem, ext
}

func exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check %s: %w", path, err)
}
