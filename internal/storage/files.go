package storage

import (
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// FileStorage writes export files into a directory
type FileStorage struct {
	basePath string
}

// NewFileStorage creates a new file storage handler
func NewFileStorage(basePath string) (*FileStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, err
	}
	return &FileStorage{basePath: basePath}, nil
}

// SaveFile writes a file atomically by streaming into a temp file and renaming
// it into place. Returns the final path.
func (fs *FileStorage) SaveFile(name string, write func(io.Writer) error) (string, error) {
	filePath := filepath.Join(fs.basePath, sanitizeFileName(name))

	tmp, err := os.CreateTemp(fs.basePath, ".export-*")
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()

	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", err
	}

	if err := os.Rename(tmpPath, filePath); err != nil {
		os.Remove(tmpPath)
		return "", err
	}
	return filePath, nil
}

var invalidFileChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// sanitizeFileName removes or replaces characters that are invalid in filenames
func sanitizeFileName(name string) string {
	name = invalidFileChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, " .")
	if name == "" {
		name = "export"
	}
	return name
}
