// Package batch loads batch run configurations and drives every configured
// repository through the ordered clone, branch, replacement, command, and
// commit stages while recording per-stage execution outcomes.
package batch
