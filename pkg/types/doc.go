// Package types contains the shared types used across repoform: the
// FormatKind tag carried by every document and the FS abstraction that
// lets the reader, writer and sampler run against a fake filesystem in
// tests.
package types
