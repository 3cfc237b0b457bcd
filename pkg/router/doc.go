// Package router matches request paths against compiled route patterns.
//
// Patterns come from routepath.Compile and are registered once at startup:
//
//	r := router.New()
//	store, _ := r.Register("/blog/:slug")
//	_ = store.Set(http.MethodGet, showPost)
//	_ = r.SetMatcher("int", router.Int)
//	r.Seal()
//
//	m, ok := r.Find("/blog/hello-world")
//	// m.Params["slug"] == "hello-world"
//
// # Precedence
//
// When several patterns match a path, the winner is chosen by, in order:
//
//  1. more static segments before the first parameter
//  2. at the first position where segment kinds differ:
//     static, then typed, then dynamic, then optional, then rest
//  3. a fixed-length pattern over one ending in an optional or rest segment
//  4. fewer segments
//  5. registration order
//
// A typed segment whose matcher rejects the value, or whose type has no
// registered matcher, removes the pattern from consideration and the next
// candidate is tried.
//
// # Initialization
//
// Register, SetMatcher and SetMiddleware are only valid before Seal. After
// Seal the tables are read-only and Find is safe for concurrent use.
package router
