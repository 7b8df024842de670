// Package client provides the configurable HTTP client built on [net/http]
// and the request and response pipeline in its subpackages.
//
// # Building a Client
//
// Use [Build] to create a [Client] with functional options:
//
//	c, err := client.Build(
//		client.WithBaseURL("https://api.example.com"),
//		client.WithToken(token, assemble.TokenHeader, ""),
//		client.WithTimeout(10 * time.Second),
//	)
//
// Settings can also come from the environment with [WithEnv].
//
// # Making Requests
//
// Requests are described by a route such as "POST /users/:id" plus
// structured inputs. [Client.Fetch] assembles, sends and decodes in one
// call:
//
//	res, err := c.Fetch(ctx, "GET /users/:id",
//		client.WithParameters(map[string]any{"id": 42}),
//	)
//
// The [decode.Result] kind follows the response Content-Type. NDJSON and
// event-stream results are lazy streams that must be iterated or closed.
//
// [Client.Request] and [Client.Do] split the same flow in two when a JSON
// body should be written to a destination:
//
//	req, err := c.Request(ctx, "/users/42")
//	err = c.Do(req, client.WithDestination(&user))
//
// # Downloading Files
//
// Stream a response body directly to disk with optional checksum
// verification and progress reporting:
//
//	err = c.Download(req, "/tmp/file.bin",
//		download.WithChecksum(sha256.New(), expectedHex),
//		download.WithProgress(),
//	)
//
// # Channels
//
// [Client.Connect] opens a WebSocket channel from a descriptor such as
// "WS /chat", reusing the client's base URL and token.
package client
