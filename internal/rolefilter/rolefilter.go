// Package rolefilter derives an explicit visibility clause from a caller's
// roles for engines without native row-level security. The relational engine
// must NOT use this package; its database evaluates visibility itself.
package rolefilter

import "github.com/tamshai/hr-gateway/internal/model"

// Config names the role sets recognized by Build.
type Config struct {
	FullAccessRoles []string
	TeamRoles       []string
}

// Clause is the computed visibility predicate. Exactly one of the three
// shapes applies per caller.
type Clause struct {
	// Unrestricted grants full visibility; Caller is unset.
	Unrestricted bool
	// OwnerOrAssignee matches records owned by OR assigned to the caller.
	OwnerOrAssignee bool
	// Caller is the display name matched against owner/assignee fields.
	// Set unless Unrestricted.
	Caller string
}

// OwnerOnly reports the strictest branch: owned records only.
func (c Clause) OwnerOnly() bool { return !c.Unrestricted && !c.OwnerOrAssignee }

// Build maps a caller to a Clause with fixed precedence, first match wins:
//
//  1. any full-access role  -> unrestricted
//  2. any team role         -> owner-or-assignee
//  3. otherwise             -> owner-only
//
// The mapping is total: every caller lands in exactly one branch.
func Build(caller model.CallerIdentity, cfg Config) Clause {
	if caller.HasAnyRole(cfg.FullAccessRoles) {
		return Clause{Unrestricted: true}
	}
	if caller.HasAnyRole(cfg.TeamRoles) {
		return Clause{OwnerOrAssignee: true, Caller: caller.DisplayName}
	}
	return Clause{Caller: caller.DisplayName}
}
