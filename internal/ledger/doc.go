// Package ledger tracks per-stage execution outcomes across a batch run.
package ledger
