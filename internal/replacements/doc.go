// Package replacements applies ordered search/replace rules across repository
// working trees and accumulates per-rule statistics for run-end reporting.
package replacements
