// Package dev implements xink's development mode.
//
// The development server consists of several components:
//
//   - Watcher: reports batches of file changes using fsnotify
//   - Builder: regenerates .xink/manifest.json from the routes directory
//   - Compiler: optionally builds and restarts the application (dev.main)
//   - ReloadServer: tells connected clients to reload via WebSocket
//
// # Usage
//
//	srv, err := dev.NewServer(dev.ServerOptions{Config: cfg, Logger: logger})
//	if err != nil {
//	    return err
//	}
//	return srv.Start(ctx)
//
// When dev.main is set, requests to the dev address are proxied to the
// application, which is started with XINK_DEV=1 and XINK_ADDR set to the
// address it should listen on.
//
// # Reload Protocol
//
// Clients connect to /_xink/reload via WebSocket. Messages are JSON:
//
//	{"type": "reload"}                // a rebuild succeeded
//	{"type": "error", "error": "..."} // a rebuild failed
//	{"type": "clear"}                 // the error is resolved
//
// A client connecting while the last build is broken receives the error
// straight away.
package dev
