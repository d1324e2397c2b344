package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	apperrors "papertrack/internal/errors"
)

// WorkbookExtensions are the spreadsheet formats the workbook reader opens.
var WorkbookExtensions = []string{".xlsx", ".xlsm", ".xltx", ".xltm"}

// FileValidator checks user-supplied paths before they reach the loader or
// the exporters
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger.With(slog.String("component", "file_validator")),
	}
}

// ValidateWorkbookPath rejects paths the workbook reader can never open. A
// path that does not exist yet is valid: the reports are served empty until
// the file appears.
func (v *FileValidator) ValidateWorkbookPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return apperrors.NewAppValidationError("workbook path is required")
	}

	base := filepath.Base(path)
	if strings.HasPrefix(base, "~$") {
		v.logger.Warn("workbook path is an Excel lock file", slog.String("path", path))
		return apperrors.NewAppValidationError(fmt.Sprintf("workbook %s is a temporary Excel lock file", path))
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !slices.Contains(WorkbookExtensions, ext) {
		v.logger.Error("workbook has unsupported extension",
			slog.String("path", path),
			slog.String("extension", ext))
		return apperrors.NewAppValidationError(fmt.Sprintf("workbook %s is not an Excel workbook (extension %q)", path, ext))
	}

	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		v.logger.Debug("workbook does not exist yet", slog.String("path", path))
		return nil
	case err != nil:
		return apperrors.NewSourceUnreadableError(path, err)
	case info.IsDir():
		return apperrors.NewAppValidationError(fmt.Sprintf("workbook %s is a directory", path))
	}
	return nil
}

// ValidateOutputDirectory ensures dir exists or can be created and is
// writable
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		v.logger.Error("failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("failed to create output directory %s", dir), err)
	}

	probe, err := os.CreateTemp(dir, ".write_test-*")
	if err != nil {
		v.logger.Error("output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("output directory %s is not writable", dir), err)
	}
	probe.Close()
	os.Remove(probe.Name())

	v.logger.Debug("output directory validated", slog.String("directory", dir))
	return nil
}

// ValidateArchivePath checks that the archive database path is not a
// directory
func (v *FileValidator) ValidateArchivePath(path string) error {
	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		return apperrors.NewAppValidationError(fmt.Sprintf("archive path %s is a directory", path))
	}
	if err != nil && !os.IsNotExist(err) {
		return apperrors.NewStorageError(fmt.Sprintf("failed to stat archive path %s", path), err)
	}
	return nil
}
