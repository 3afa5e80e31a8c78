// Package cache defines the disk-backed store that mirrors upstream repository
// directories under the configured cache root: <root>/<repo-relative path>.
// A cache directory is either absent or holds a complete batch; the store only
// provides the primitives (atomic temp file + rename writes, emptiness checks,
// recursive removal) and leaves batch semantics to the maven and proxy packages.
package cache
