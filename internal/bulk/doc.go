// Package bulk runs ordered batches of Drive changes.
//
// An Executor applies each item of a batch in input order and isolates its
// failure: a failed item is recorded in the Result and the next item still
// runs. Only structural problems with the batch itself, such as an empty
// input list, are returned as errors.
//
// Three kinds of batch are supported: typed operations (Execute), path
// pairs that are classified into moves and renames (MoveFiles) and nested
// folder creation (CreateFolders).
package bulk
