// Package gitrepo provides git repository operations and remote URL helpers
// shared by the reconciliation pipeline.
package gitrepo
