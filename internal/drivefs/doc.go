// Package drivefs exposes Drive as a path-oriented filesystem.
//
// The Adapter composes the Drive client, the query builder and a path
// resolver into the caller-facing operations: listing and searching
// directories, reading file content (exporting Workspace documents to a
// concrete format), moving, renaming, creating folders and building
// directory trees with bounded concurrency.
//
// Every object returned to callers is a CanonicalFile carrying its absolute
// path. Paths follow the first parent of each object.
package drivefs
