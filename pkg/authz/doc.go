// Package authz decides what a user may do inside an organization.
//
// Decisions are made by a Casbin RBAC enforcer loaded from the embedded
// model.conf and policy.csv. Subjects are organization roles (owner, admin,
// member, viewer) and vault roles (vault:owner, vault:editor,
// vault:viewer). Roles inherit through grouping rules, and the "manage"
// action grants every action on its object.
//
// The Authorizer resolves a user's role from their active membership
// before enforcing. Users without an active membership are told the
// organization does not exist so its existence is not leaked.
package authz
