// Package validation checks user-supplied names and paths before they touch
// the filesystem: workflow names, display export file names and paths
// relative to an output directory.
package validation
