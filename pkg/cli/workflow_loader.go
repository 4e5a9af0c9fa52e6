package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dshills/typoflow/pkg/graph"
	"github.com/dshills/typoflow/pkg/storage"
)

// LoadWorkflowFromFile loads a workflow document from a JSON or YAML file,
// chosen by extension.
func LoadWorkflowFromFile(path string) (*graph.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return graph.ParseYAMLDocument(data)
	default:
		return graph.ParseDocument(data)
	}
}

// workflowRepository opens the repository under the config directory.
func workflowRepository() (*storage.FilesystemWorkflowRepository, error) {
	return storage.NewFilesystemWorkflowRepository(GetConfigDir())
}

// isWorkflowPath reports whether arg names a file rather than a stored
// workflow.
func isWorkflowPath(arg string) bool {
	if strings.ContainsRune(arg, filepath.Separator) || strings.ContainsRune(arg, '/') {
		return true
	}
	switch strings.ToLower(filepath.Ext(arg)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// resolveWorkflow loads arg either as a file path or as the name of a
// stored workflow. The returned name is empty for files.
func resolveWorkflow(arg string) (*graph.Document, string, error) {
	if isWorkflowPath(arg) {
		if _, err := os.Stat(arg); os.IsNotExist(err) {
			return nil, "", fmt.Errorf("workflow file not found: %s", arg)
		}
		doc, err := LoadWorkflowFromFile(arg)
		return doc, "", err
	}

	repo, err := workflowRepository()
	if err != nil {
		return nil, "", err
	}
	doc, err := repo.Load(arg)
	if errors.Is(err, storage.ErrWorkflowNotFound) {
		return nil, "", fmt.Errorf("workflow not found: %s\n\nLooked in: %s", arg, repo.Dir())
	}
	if err != nil {
		return nil, "", err
	}
	return doc, arg, nil
}

// workflowNameFromPath derives a repository name from a file name.
func workflowNameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
