// Package store persists crawl collections between runs.
//
// Each collection is a single JSON array in <dir>/<name>.json. Saves are full
// rewrites done through a temporary file and a rename, so an interrupted run
// leaves either the old or the new array on disk, never half of one.
//
// Load never fails on bad content. A missing file becomes an empty array and
// so does a corrupt one (truncated text, a bare string, an object), with a
// warning logged. Only operating system errors such as permission or disk
// failures reach the caller; those are fatal to a crawl.
//
// Only one process may use a state directory at a time.
package store
