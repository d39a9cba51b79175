// Package cache implements the two-layer response cache: an in-process
// memory layer with TTLs and tags, backed by an optional database layer
// shared between server instances.
//
// Values are stored JSON-encoded, so callers read them back into a typed
// destination:
//
//	var orgs []model.Organization
//	err := mgr.GetOrLoad(ctx, cache.Key("orgs", userID), 0, &orgs, loadOrgs, cache.UserTag(userID))
//
// Writes invalidate by tag. A failing database layer never fails a read or
// write; it degrades to a memory-only cache and is logged.
package cache
