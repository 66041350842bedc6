// Package index selects or synthesizes one Index.md per exported project
// and a top-level Index.md linking all projects.
//
// Per project, a small ordered candidate list (Wiki.md, Index.md, the
// project name and its separator-normalized variants) is searched against
// the exported files, from exact match down to a substring heuristic; the
// first hit's content is copied into Index.md. Projects with no markdown
// at all get a synthetic index generated with the nao1215/markdown
// builder. The top-level index orders projects by display name using
// locale-aware collation.
package index
