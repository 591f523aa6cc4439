// Package restclient provides the primary entry point for constructing a
// REST client with cache-bound operations.
//
// It layers configuration, the default HTTP transport, logging, metrics and
// the cache backend on top of the request client and operations defined in
// the rest package.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/restkit/pkg/rest"
//	  "github.com/fivetwenty-io/restkit/pkg/restclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  cli, err := restclient.New(ctx, &rest.ClientConfig{BaseURL: "api.example.com"})
//	  if err != nil { log.Fatal(err) }
//	  defer cli.Close()
//
//	  // Cached read of /users/7
//	  user, err := cli.Get("/users/:id", rest.Flat(map[string]any{"id": 7})).Fetch(ctx)
//
//	  // Update it; every cached read under /users is invalidated first.
//	  _, err = cli.Update("/users/:id", rest.MutationOptions{}).
//	    Execute(ctx, rest.Enveloped(map[string]any{"name": "ada"}, map[string]any{"id": 7}))
//	}
//
// Cache backends
//
// ClientConfig.Cache selects the store behind cached reads: an in-process memory
// cache (the default), a NATS JetStream key-value bucket or Redis, so that
// several processes share entries and invalidations. Type "none" disables
// caching while keeping the same API.
package restclient
