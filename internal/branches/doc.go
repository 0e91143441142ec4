// Package branches reconciles per-repository personal branches against their
// source branch using checkout, recreate, or reset strategies.
package branches
