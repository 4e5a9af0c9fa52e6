package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dshills/typoflow/pkg/graph"
	"github.com/dshills/typoflow/pkg/validation"
)

// ErrWorkflowNotFound is returned when no workflow file has the given name.
var ErrWorkflowNotFound = errors.New("workflow not found")

const workflowExt = ".json"

// FilesystemWorkflowRepository stores workflow documents as JSON files in
// <base>/workflows/<name>.json.
type FilesystemWorkflowRepository struct {
	baseDir string
}

// NewFilesystemWorkflowRepository creates the repository under baseDir,
// creating the workflows directory if needed.
func NewFilesystemWorkflowRepository(baseDir string) (*FilesystemWorkflowRepository, error) {
	workflowsDir := filepath.Join(baseDir, "workflows")
	if err := os.MkdirAll(workflowsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create workflows directory: %w", err)
	}
	return &FilesystemWorkflowRepository{baseDir: workflowsDir}, nil
}

// Dir returns the directory workflow files are stored in.
func (r *FilesystemWorkflowRepository) Dir() string {
	return r.baseDir
}

// Save writes g as a workflow document named name, replacing any existing one.
func (r *FilesystemWorkflowRepository) Save(name string, g *graph.Graph, edgeType string) error {
	if err := validation.ValidateName(name); err != nil {
		return fmt.Errorf("invalid workflow name: %w", err)
	}
	if g == nil {
		return fmt.Errorf("cannot save nil graph")
	}

	data, err := graph.Export(g, edgeType)
	if err != nil {
		return fmt.Errorf("failed to encode workflow: %w", err)
	}

	// temp file + rename so readers never see a partial document
	filePath := r.workflowPath(name)
	tempPath := filePath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write workflow file: %w", err)
	}
	if err := os.Rename(tempPath, filePath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to save workflow file: %w", err)
	}
	return nil
}

// Load reads and validates the workflow document named name.
func (r *FilesystemWorkflowRepository) Load(name string) (*graph.Document, error) {
	if err := validation.ValidateName(name); err != nil {
		return nil, fmt.Errorf("invalid workflow name: %w", err)
	}

	data, err := os.ReadFile(r.workflowPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrWorkflowNotFound, name)
		}
		return nil, fmt.Errorf("failed to read workflow file: %w", err)
	}
	return graph.ParseDocument(data)
}

// Exists reports whether a workflow named name is stored.
func (r *FilesystemWorkflowRepository) Exists(name string) bool {
	if validation.ValidateName(name) != nil {
		return false
	}
	_, err := os.Stat(r.workflowPath(name))
	return err == nil
}

// Delete removes the workflow named name.
func (r *FilesystemWorkflowRepository) Delete(name string) error {
	if err := validation.ValidateName(name); err != nil {
		return fmt.Errorf("invalid workflow name: %w", err)
	}
	if err := os.Remove(r.workflowPath(name)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrWorkflowNotFound, name)
		}
		return fmt.Errorf("failed to delete workflow file: %w", err)
	}
	return nil
}

// List returns the names of all stored workflows in sorted order.
func (r *FilesystemWorkflowRepository) List() ([]string, error) {
	entries, err := os.ReadDir(r.baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflows directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), workflowExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), workflowExt))
	}
	sort.Strings(names)
	return names, nil
}

func (r *FilesystemWorkflowRepository) workflowPath(name string) string {
	return filepath.Join(r.baseDir, name+workflowExt)
}
