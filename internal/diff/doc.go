// Package diff parses unified diff text into an addressable per-file,
// per-hunk line model and derives the per-file validity index used to
// anchor review comments.
//
// A unified diff carries three coordinate systems at once: old-file line
// numbers, new-file line numbers, and the flat diff position that review
// APIs address comments by. Each parsed line keeps all three so that every
// consumer can pick the coordinate it needs instead of converting eagerly.
package diff
