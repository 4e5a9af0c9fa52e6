package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathError describes a rejected path.
type PathError struct {
	UserPath string
	Reason   string
}

// Error implements the error interface.
func (e *PathError) Error() string {
	return fmt.Sprintf("path validation failed: %s (input: %s)", e.Reason, e.UserPath)
}

// maxPathLen bounds user-supplied relative paths.
const maxPathLen = 1024

// PathValidator restricts relative paths to a base directory.
type PathValidator struct {
	resolvedBase string
}

// NewPathValidator creates a validator for basePath, which must be an
// existing absolute directory.
func NewPathValidator(basePath string) (*PathValidator, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}
	if !filepath.IsAbs(basePath) {
		return nil, fmt.Errorf("base path must be absolute: %s", basePath)
	}
	info, err := os.Stat(basePath)
	if err != nil {
		return nil, fmt.Errorf("cannot access base path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("base path is not a directory: %s", basePath)
	}
	resolved, err := filepath.EvalSymlinks(basePath)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve symbolic links in base path: %w", err)
	}
	return &PathValidator{resolvedBase: resolved}, nil
}

// Validate returns the absolute path of userPath inside the base directory.
// The path may not exist yet, but its parent directory is resolved so a
// symlink cannot redirect a write outside the base.
func (v *PathValidator) Validate(userPath string) (string, error) {
	if userPath == "" {
		return "", &PathError{UserPath: userPath, Reason: "path cannot be empty"}
	}
	if len(userPath) > maxPathLen {
		return "", &PathError{UserPath: userPath, Reason: fmt.Sprintf("path length exceeds maximum of %d bytes", maxPathLen)}
	}
	if !filepath.IsLocal(userPath) {
		return "", &PathError{UserPath: userPath, Reason: "path escapes allowed directory"}
	}

	full := filepath.Join(v.resolvedBase, filepath.Clean(userPath))
	resolved, err := filepath.EvalSymlinks(full)
	if err != nil {
		parent, perr := filepath.EvalSymlinks(filepath.Dir(full))
		if perr != nil {
			return "", &PathError{UserPath: userPath, Reason: "cannot resolve path"}
		}
		resolved = filepath.Join(parent, filepath.Base(full))
	}

	rel, err := filepath.Rel(v.resolvedBase, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &PathError{UserPath: userPath, Reason: "resolved path escapes base directory"}
	}
	return resolved, nil
}

// ValidateSecurePath validates userPath against basePath without keeping a
// validator around.
func ValidateSecurePath(basePath, userPath string) (string, error) {
	v, err := NewPathValidator(basePath)
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}
	return v.Validate(userPath)
}
