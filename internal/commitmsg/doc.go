// Package commitmsg expands commit message templates with built-in and
// operator-supplied placeholders.
package commitmsg
