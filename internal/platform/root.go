package platform

import (
	"errors"
	"os"
	"path/filepath"
)

// ErrRootNotFound is returned by FindRoot when no binder encloses the start
// directory.
var ErrRootNotFound = errors.New("binder root not found")

// ConfigFile is the per-binder configuration file.
const ConfigFile = "binder.yaml"

// FindRoot walks upwards from startDir to the first directory holding a
// .binder directory or a binder.yaml file and returns its absolute path.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for dir := abs; ; {
		if hasFile(dir, ".binder") || hasFile(dir, ConfigFile) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrRootNotFound
		}
		dir = parent
	}
}

func hasFile(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}
