// Package access decides assembly visibility for a requester. The resolver is
// a pure function over the registry snapshot: no store is touched and nothing
// is cached, so administrative edits apply on the next request.
package access

import (
	"github.com/moop-bio/moop-engine/pkg/auth"
	"github.com/moop-bio/moop-engine/pkg/registry"
)

// Decision is the resolved visibility of an (organism, assembly) pair.
type Decision int

const (
	// Denied means the requester must not see the assembly. Unknown
	// organisms resolve to Denied (fail closed).
	Denied Decision = iota
	// Public means the assembly is visible because it is publicly marked.
	Public
	// Granted means the assembly is visible through an explicit grant or an
	// administrator identity.
	Granted
)

// String implements fmt.Stringer for log output.
func (d Decision) String() string {
	switch d {
	case Public:
		return "public"
	case Granted:
		return "granted"
	default:
		return "denied"
	}
}

// Allowed reports whether the decision permits access.
func (d Decision) Allowed() bool { return d != Denied }

// Resolve decides visibility of one (organism, assembly) pair. Rule order,
// first match wins: administrator, public marker, collaborator grant, denied.
func Resolve(req auth.Requester, snap *registry.Snapshot, organism, assembly string) Decision {
	if !snap.HasOrganism(organism) {
		return Denied
	}
	if req.Admin {
		return Granted
	}
	if snap.IsPublicAssembly(organism, assembly) {
		return Public
	}
	if req.Authenticated {
		if user, ok := snap.User(req.Username); ok && user.HasGrant(organism, assembly) {
			return Granted
		}
	}
	return Denied
}

// ResolveOrganism decides organism-level visibility, used for search scoping:
// the organism is visible if any of its assemblies would be.
func ResolveOrganism(req auth.Requester, snap *registry.Snapshot, organism string) Decision {
	if !snap.HasOrganism(organism) {
		return Denied
	}
	if req.Admin {
		return Granted
	}
	if snap.IsPublicOrganism(organism) {
		return Public
	}
	if req.Authenticated {
		if user, ok := snap.User(req.Username); ok && user.HasOrganismGrant(organism) {
			return Granted
		}
	}
	// An organism with registered assemblies may still be granted through
	// any one of them.
	for _, assembly := range snap.AssembliesOf(organism) {
		if Resolve(req, snap, organism, assembly).Allowed() {
			return Granted
		}
	}
	return Denied
}

// AssemblyListing is one accessible assembly in the catalog.
type AssemblyListing struct {
	Organism string   `json:"organism"`
	Assembly string   `json:"assembly"`
	Groups   []string `json:"groups,omitempty"`
	Decision string   `json:"access"`
}

// AccessibleAssemblies returns every (organism, assembly) pair the requester
// may see, in registry order. Used by the organisms endpoint and to scope
// hierarchy queries to visible assemblies.
func AccessibleAssemblies(req auth.Requester, snap *registry.Snapshot) []AssemblyListing {
	var listings []AssemblyListing
	for _, organism := range snap.Organisms() {
		for _, assembly := range snap.AssembliesOf(organism) {
			decision := Resolve(req, snap, organism, assembly)
			if !decision.Allowed() {
				continue
			}
			listings = append(listings, AssemblyListing{
				Organism: organism,
				Assembly: assembly,
				Groups:   snap.GroupsOf(organism, assembly),
				Decision: decision.String(),
			})
		}
	}
	return listings
}
