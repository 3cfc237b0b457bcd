// Package build turns a project's route, param and middleware sources into
// the route manifest.
//
// Route files are named endpoint.go or route.go and live under the routes
// directory; their directory path is the URL pattern:
//
//	src/routes/
//	├── endpoint.go                 → /
//	├── blog/[slug]/endpoint.go     → /blog/:slug
//	├── users/[id=int]/route.go     → /users/:id=int
//	├── docs/[[lang]]/endpoint.go   → /docs/:lang?
//	└── files/[...path]/endpoint.go → /files/*path
//
// A route file may only export the handlers GET, POST, PUT, PATCH, DELETE,
// HEAD, OPTIONS and Fallback. Param files export Match and the middleware
// file exports Handle. Exports are read with go/parser; nothing is compiled.
//
// In dev mode the manifest references the sources and is written to
// .xink/manifest.json. In build mode every source is passed through the
// Transpiler into the output directory next to the manifest.
package build
