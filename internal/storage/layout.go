package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// DefaultRootName is the directory created under the user's home when DATA_ROOT is unset.
	DefaultRootName = "EstudioIAClaroData"
	// UploadDirName holds one sub-directory per session with the uploaded original.
	UploadDirName = "Informes Clásicos"
	// OutputDirName holds preview and final PDFs served by /download.
	OutputDirName = "Informes Simplificados"
	// LogDirName holds the rotating activity log.
	LogDirName = "logs"
)

// ErrInvalidName is returned for names that are not a single path element.
var ErrInvalidName = errors.New("invalid file name")

// Layout resolves the three directory roots under the application data root.
type Layout struct {
	Root      string
	UploadDir string
	OutputDir string
	LogDir    string
}

// NewLayout computes the layout paths without touching the filesystem.
func NewLayout(root string) Layout {
	return Layout{
		Root:      root,
		UploadDir: filepath.Join(root, UploadDirName),
		OutputDir: filepath.Join(root, OutputDirName),
		LogDir:    filepath.Join(root, LogDirName),
	}
}

// DefaultRoot returns $HOME/EstudioIAClaroData.
func DefaultRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, DefaultRootName), nil
}

// EnsureLayout creates the upload, output and log directories (with parents).
// It is idempotent and safe to call on every start.
func EnsureLayout(root string) (Layout, error) {
	if root == "" {
		return Layout{}, errors.New("data root is required")
	}
	l := NewLayout(root)
	for _, dir := range []string{l.UploadDir, l.OutputDir, l.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Layout{}, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return l, nil
}

// OutputPath resolves a bare file name inside the output directory.
func (l Layout) OutputPath(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return filepath.Join(l.OutputDir, name), nil
}

// ValidateName accepts only a single, non-special path element.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" || name == "." || name == ".." {
		return ErrInvalidName
	}
	if strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return ErrInvalidName
	}
	return nil
}
