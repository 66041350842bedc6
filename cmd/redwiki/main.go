// Package main provides the entry point for the redwiki CLI.
//
// redwiki exports the full wiki content of a Redmine server into a local
// tree of markdown files, rewrites in-wiki links to work as a static
// site, and synthesizes index pages.
//
// Usage:
//
//	redwiki export --url https://redmine.example.com
//	redwiki rewrite --url https://redmine.example.com -o wiki-export
//
// See --help for all available options.
package main

// main is the entry point for redwiki.
func main() {
	Execute()
}
