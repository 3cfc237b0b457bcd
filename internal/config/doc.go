// Package config loads the xink project configuration.
//
// The configuration lives in xink.json, xink.yaml or xink.yml at the project
// root. Every field is optional.
//
// # Configuration File Structure
//
//	paths:
//	  routes: src/routes
//	  params: src/params
//	  middleware: src/middleware.go
//	build:
//	  output: dist
//	server:
//	  host: localhost
//	  port: 3000
//	  metrics: true
//	dev:
//	  debounce: 100ms
//	  watch: [src/lib]
//	log:
//	  level: debug
//	  format: json
//	publish:
//	  bucket: my-site
//	  prefix: releases/
//	  region: eu-west-1
//
// # Usage
//
//	cfg, err := config.LoadFromWorkingDir()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Routes:", cfg.RoutesPath())
package config
