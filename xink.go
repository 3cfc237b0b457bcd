// Package xink serves file-system routed request handlers.
//
// A build (see cmd/xink) compiles the routes directory into a manifest. At
// startup the application registers the handlers for every route file,
// loads the manifest and serves:
//
//	reg := xink.NewRegistry()
//	reg.RouteFile("blog/[slug]/endpoint.go", endpoint.Store{
//	    http.MethodGet: blog.GET,
//	})
//	reg.Param("int", params.Match)
//	reg.Middleware(middleware.Handle)
//
//	r, err := xink.LoadFile(".xink/manifest.json", reg, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	app := xink.New(r, xink.Config{Logger: logger})
//	log.Fatal(http.ListenAndServe(":3000", app))
//
// Run does the same from the project config, picking the dev manifest when
// started by `xink dev` and adding request ids, logging, metrics and
// tracing as configured:
//
//	log.Fatal(xink.Run(ctx, reg, xink.RunOptions{}))
//
// Every request runs the middleware, then resolves to the route handler.
// Unmatched paths get a 404, unsupported methods a 405 with an Allow header.
// Staged headers and cookies are merged into the response, and a 200 whose
// ETag matches If-None-Match is downgraded to 304.
package xink
