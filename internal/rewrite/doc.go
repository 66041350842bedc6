// Package rewrite converts server-absolute wiki and attachment links in
// the exported markdown tree into relative filesystem links, so the tree
// works as a static site.
//
// Three link shapes are handled, in order, per file:
//
//  1. Wiki cross-reference syntax: [[Page]] and [[project:Page]]
//  2. Absolute wiki links: <server>/projects/<p>/wiki/<page>[#anchor]
//  3. Absolute attachment links: <server>/attachments/[download/]<id>/<file>
//
// Matching is literal: the configured server URL is regexp-escaped and
// matched as an exact prefix, so links to other hosts are never touched.
// Rewriting is whole-file text substitution; no markdown AST is built.
//
// Categories 1 and 2 are idempotent (their output no longer matches the
// patterns). Category 3's cross-project fallback resolves duplicate
// filenames in directory-listing order, which is best-effort linkage, not
// a uniqueness guarantee.
package rewrite
