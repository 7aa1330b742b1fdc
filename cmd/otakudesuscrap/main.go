// Package main provides the entry point for the otakudesuscrap CLI.
//
// otakudesuscrap crawls an anime catalog site into a tree of JSON records:
// listing pages, per-anime detail pages, and per-episode detail pages.
// Interrupted runs resume where they left off.
//
// Usage:
//
//	otakudesuscrap crawl
//	otakudesuscrap page anime tokyo-revengers-sub-indo
//
// See --help for all available options.
package main

// main is the entry point for otakudesuscrap.
func main() {
	Execute()
}
