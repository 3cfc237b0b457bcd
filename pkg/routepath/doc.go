// Package routepath turns route files into URL patterns and parses those
// patterns into segments the router can match against.
//
// A route file lives under the routes root and its directory names describe
// the URL:
//
//	src/routes/
//	├── endpoint.go                    → /
//	├── blog/
//	│   ├── endpoint.go                → /blog
//	│   └── [slug]/endpoint.go         → /blog/:slug
//	├── users/[id=int]/endpoint.go     → /users/:id=int
//	├── docs/[[lang]]/endpoint.go      → /docs/:lang?
//	└── files/[...path]/endpoint.go    → /files/*path
//
// Compile produces the pattern string, Parse produces a Pattern, and SafeDir
// turns a pattern into a directory name that every filesystem accepts.
package routepath
