// Package query compiles structured file predicates into the Google Drive
// search query dialect.
//
// Conditions accumulate in call order and are joined with " and " by Build.
// Every condition that embeds a caller-supplied literal escapes it first, so
// names such as "O'Brien's Folder" cannot break the condition boundary.
//
// Example usage:
//
//	q := query.New().
//	    InParents("root").
//	    NameEquals("O'Brien's Folder").
//	    Trashed(false).
//	    Build()
//	// 'root' in parents and name = 'O\'Brien\'s Folder' and trashed = false
package query
