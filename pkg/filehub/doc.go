// Package filehub provides a client for the FileHub deduplicating
// file-management service. Beyond the plain REST operations (list, stats,
// upload, delete, download) it implements the query orchestration used by
// browsing sessions: immutable filter snapshots with page-reset semantics, a
// debounce controller that coalesces rapid filter edits, a keyed query cache
// with in-flight request deduplication and stale-while-revalidate projection,
// mutation-driven invalidation, and a pagination window calculator. The
// public API centres around Client (the remote surface) and Browser (one
// browsing session wiring filters, debounce, caches and invalidation
// together).
package filehub
