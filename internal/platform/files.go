package platform

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/disk"
)

// Operating system constants
const (
	OSDarwin  = "darwin"
	OSWindows = "windows"
	OSLinux   = "linux"
)

// File permissions
const (
	DefaultDirPermissions = 0755
)

// Command constants
const (
	OpenCommand     = "open"
	ExplorerCommand = "explorer"
	XDGOpenCommand  = "xdg-open"
)

// File manager names
var (
	LinuxFileManagers = []string{"nautilus", "dolphin", "thunar", "nemo", "pcmanfm"}
)

// Filename limits
const (
	MaxFileNameLength = 50
)

var forbiddenFileNameChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// SafeFileName strips characters that are invalid in file names on common
// filesystems, trims surrounding whitespace, and caps the result at
// MaxFileNameLength runes.
func SafeFileName(name string) string {
	cleaned := forbiddenFileNameChars.ReplaceAllString(name, "")
	cleaned = strings.TrimSpace(cleaned)

	runes := []rune(cleaned)
	if len(runes) > MaxFileNameLength {
		return string(runes[:MaxFileNameLength])
	}
	return cleaned
}

// CreateDirectoryIfNotExists creates directory if it doesn't exist
func CreateDirectoryIfNotExists(dirPath string) error {
	if _, err := os.Stat(dirPath); os.IsNotExist(err) {
		return os.MkdirAll(dirPath, DefaultDirPermissions)
	}
	return nil
}

// OpenContainingFolder opens the directory that holds filePath in the system
// file manager.
func OpenContainingFolder(filePath string) error {
	if filePath == "" {
		return fmt.Errorf("file path is empty")
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}
	dir := filepath.Dir(absPath)

	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("folder does not exist: %w", err)
	}

	switch runtime.GOOS {
	case OSDarwin:
		return exec.Command(OpenCommand, dir).Run()
	case OSWindows:
		return exec.Command(ExplorerCommand, dir).Run()
	case OSLinux:
		return openFolderLinux(dir)
	default:
		return fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}
}

// openFolderLinux opens a directory on Linux, trying xdg-open first and then
// common file managers.
func openFolderLinux(dir string) error {
	cmd := exec.Command(XDGOpenCommand, dir)
	if err := cmd.Run(); err == nil {
		return nil
	}

	for _, fm := range LinuxFileManagers {
		if _, err := exec.LookPath(fm); err == nil {
			cmd := exec.Command(fm, dir)
			return cmd.Run()
		}
	}

	return fmt.Errorf("no suitable file manager found")
}

// DiskFreeBytes returns the free space of the filesystem containing path.
// When path does not exist yet, the nearest existing parent is measured.
func DiskFreeBytes(path string) (uint64, error) {
	probe, err := filepath.Abs(path)
	if err != nil {
		return 0, fmt.Errorf("failed to get absolute path: %w", err)
	}

	for {
		if _, err := os.Stat(probe); err == nil {
			break
		}
		parent := filepath.Dir(probe)
		if parent == probe {
			break
		}
		probe = parent
	}

	usage, err := disk.Usage(probe)
	if err != nil {
		return 0, fmt.Errorf("failed to read disk usage: %w", err)
	}
	return usage.Free, nil
}
