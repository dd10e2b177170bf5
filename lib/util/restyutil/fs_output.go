package restyutil

import (
	"log/slog"
	"os"
	"path/filepath"
)

// FilesystemOutput writes every response it is given to its own file in a directory,
// it is meant for inspecting what the site actually served when an extraction breaks.
type FilesystemOutput struct {
	directory string
}

func NewFilesystemOutput(dir string) (FilesystemOutput, error) {
	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return FilesystemOutput{}, err
	}
	return FilesystemOutput{directory: dir}, nil
}

func (o FilesystemOutput) Write(id string, contents string) {
	err := os.WriteFile(filepath.Join(o.directory, filepath.Base(id)), []byte(contents), 0o600)
	if err != nil {
		slog.Warn("failed to write response file", "id", id, "err", err)
	}
}
