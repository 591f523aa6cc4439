// Package rest provides a typed REST client with generic CRUD verbs over a
// declarative path schema, plus cache-bound operations that route reads
// through a shared cache and invalidate it when mutations succeed.
//
// # Overview
//
// A Client turns a verb, a path template and an operation config into one
// HTTP request. Path templates use ":name" segments, optionally dotted to
// reach into nested objects:
//
//	client, err := rest.NewClient("https://api.example.com", transport)
//	if err != nil { /* handle error */ }
//
//	raw, err := client.Get(ctx, "/users/:id", rest.Flat(map[string]any{"id": 7}))
//
// Most consumers construct clients through the restclient package, which
// wires the default HTTP transport, logging, metrics and cache backend from
// a ClientConfig.
//
// # Operation configs
//
// A config is either flat, where one object is both the payload and the path
// parameter source, or an envelope that separates them:
//
//	rest.Flat(map[string]any{"id": 7, "name": "x"})
//	rest.Enveloped(map[string]any{"name": "x"}, map[string]any{"id": 7})
//
// For get the payload is the query string; for create and update it is the
// JSON body. Delete only takes a flat path parameter object.
//
// # Cache-bound operations
//
// Operations wraps a Client and a QueryCache. Reads are cached under
// [canonical path, config], where the canonical path is the template with
// its placeholder segments removed. A successful mutation invalidates every
// entry under its own canonical path before calling OnSuccess:
//
//	ops := rest.NewOperations(client, rest.NewStoreQueryCache(rest.NewMemoryCache(0), nil))
//
//	user, err := ops.Get("/users/:id", rest.Flat(map[string]any{"id": 7})).Fetch(ctx)
//
//	_, err = ops.Update("/users/:id", rest.MutationOptions{}).
//	  Execute(ctx, rest.Enveloped(map[string]any{"name": "y"}, map[string]any{"id": 7}))
//
// # Errors
//
// Non-2xx responses are returned as *HTTPError, transport failures and
// malformed bodies as *TransportError, and unresolved placeholders as
// *MissingParameterError. Helpers such as IsNotFound and StatusCode make it
// easy to branch on common cases.
package rest
