package platform

import (
	"os"
	"runtime"
)

// Permissions of installed files and the directories created for them.
const (
	DirPerm  os.FileMode = 0755
	FilePerm os.FileMode = 0644
	ExecPerm os.FileMode = 0755
)

// Chmod sets the permission bits of path. Windows has no Unix permission
// bits, so there it only checks that path exists.
func Chmod(path string, mode os.FileMode) error {
	if runtime.GOOS == "windows" {
		_, err := os.Stat(path)
		return err
	}
	return os.Chmod(path, mode.Perm())
}
