// Package download streams response bodies to disk with optional checksum
// validation and progress reporting.
//
// [Handle] writes the body to a temporary file alongside the destination
// path, then renames it on success:
//
//	err := download.Handle(ctx, resp.Body, resp.ContentLength, destPath, logger,
//		download.WithChecksum(sha256.New(), digest),
//	)
//
// Most callers use [github.com/adamwoolhether/fetchkit/client.Client.Download],
// which assembles the request, requires a raw passthrough response and
// calls Handle.
package download
