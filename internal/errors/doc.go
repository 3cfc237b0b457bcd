// Package errors provides coded, actionable errors for the xink tooling.
//
// Build and startup failures are reported to the operator before any request
// is served, so each one carries a stable code, a short message, an optional
// longer detail, the file it concerns and a hint.
//
// # Error Codes
//
//   - E120-E123: configuration
//   - E140-E145: command line
//   - E200-E209: route, param and middleware validation during a build
//   - E220-E222: manifest loading at server startup
//
// # Usage
//
//	err := errors.New("E203").
//	    WithLocation("src/routes/blog/[slug]/endpoint.go", 12, 6).
//	    WithDetail(`exported "Get" is not an HTTP method`).
//	    WithSuggestion("Rename it to GET")
//
//	fmt.Print(err.Format())
//	// ERROR E203: Route exports an unsupported method
//	//
//	//   src/routes/blog/[slug]/endpoint.go:12:6
//	//
//	//     10 │
//	//     11 │ // Get returns the post.
//	//   → 12 │ func Get(ev *endpoint.Event) (*endpoint.Response, error) {
//	//        │      ^
//	//     13 │
//	//
//	//   exported "Get" is not an HTTP method
//	//
//	//   Hint: Rename it to GET
package errors
