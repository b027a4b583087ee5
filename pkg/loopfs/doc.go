// Package loopfs implements the passthrough operation handler for a loopback
// filesystem: every operation resolves a virtual path against a configured
// root directory and performs the equivalent native operation on the real
// tree. The package has no knowledge of the FUSE protocol; pkg/bridgefs binds
// it to a host dispatcher.
//
// The handler is stateless apart from the immutable mount configuration.
// File handles use positioned I/O throughout, so concurrent requests against
// the same handle are safe. Directory handles are not safe for concurrent
// use; the host dispatcher is expected to serialize calls per handle.
package loopfs
