package path

import (
	"path/filepath"
	"runtime"
)

// GetRootDirectory returns the module root, two levels above this file.
func GetRootDirectory() string {
	_, currentFile, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(currentFile), "..", "..")
}

func EnvironmentFile() string {
	return filepath.Join(GetRootDirectory(), ".env")
}
