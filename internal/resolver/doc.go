// Package resolver translates between absolute Drive paths and object IDs.
//
// Drive addresses every object by an opaque ID and a list of parent IDs, so
// the same object can appear under more than one folder. The Resolver
// presents a single-parent tree to callers: an object's path is always built
// from its first parent. Translations are cached in both directions and
// populated on demand; the synthetic root "/" is pre-seeded to the "root"
// alias. Paths not anchored at the root, such as those of items shared with
// the user or of objects with an unresolvable ancestor, are returned but
// never cached.
//
// The cache belongs to one Resolver and is never shared or persisted. It is
// not invalidated by changes made outside this process; callers that move or
// rename objects through the drivefs adapter get their entries invalidated
// automatically.
package resolver
