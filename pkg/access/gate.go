package access

import (
	"fmt"

	"github.com/nimburion/storefront/pkg/apperror"
)

// Policy maps role -> resource -> granted verbs.
type Policy map[Role]map[Resource][]Verb

// DefaultPolicy is the grant table used by the service.
func DefaultPolicy() Policy {
	all := []Verb{CreateAny, ReadAny, UpdateAny, DeleteAny}
	return Policy{
		RoleAdmin: {
			ResourceUsers:      all,
			ResourceProducts:   all,
			ResourceOrders:     all,
			ResourceCategories: all,
		},
		RoleUser: {
			ResourceUsers:      {ReadOwn, UpdateOwn, DeleteOwn},
			ResourceProducts:   {ReadAny},
			ResourceOrders:     {CreateOwn, ReadOwn, DeleteOwn},
			ResourceCategories: {ReadAny},
		},
	}
}

// Gate decides whether a subject may perform a verb on a resource.
// It holds no mutable state and is safe for concurrent use.
type Gate struct {
	grants map[Role]map[Resource]map[Verb]struct{}
}

// NewGate indexes the policy for constant-time lookups.
func NewGate(policy Policy) *Gate {
	grants := make(map[Role]map[Resource]map[Verb]struct{}, len(policy))
	for role, resources := range policy {
		byResource := make(map[Resource]map[Verb]struct{}, len(resources))
		for resource, verbs := range resources {
			set := make(map[Verb]struct{}, len(verbs))
			for _, verb := range verbs {
				set[verb] = struct{}{}
			}
			byResource[resource] = set
		}
		grants[role] = byResource
	}
	return &Gate{grants: grants}
}

// Granted reports whether role holds verb on resource. An "any" grant implies "own".
func (g *Gate) Granted(role Role, verb Verb, resource Resource) bool {
	set, ok := g.grants[role][resource]
	if !ok {
		return false
	}
	if _, ok := set[verb]; ok {
		return true
	}
	if verb.Scope == ScopeOwn {
		_, ok := set[verb.Any()]
		return ok
	}
	return false
}

// Authorize checks role × verb × resource only. Ownership for "own" verbs is the
// caller's concern; use AuthorizeOwned when the owner is known.
func (g *Gate) Authorize(subject Subject, verb Verb, resource Resource) error {
	if g.Granted(subject.Role, verb, resource) {
		return nil
	}
	return deny(subject, verb, resource)
}

// AuthorizeOwned checks a verb against a concrete record owned by ownerID.
// An "any" grant allows regardless of owner; otherwise an "own" grant allows only
// when the subject owns the record.
func (g *Gate) AuthorizeOwned(subject Subject, verb Verb, resource Resource, ownerID string) error {
	if g.Granted(subject.Role, verb.Any(), resource) {
		return nil
	}
	own := Verb{Op: verb.Op, Scope: ScopeOwn}
	if !g.Granted(subject.Role, own, resource) {
		return deny(subject, verb, resource)
	}
	return RequireOwner(ownerID, subject.ID, verb.Op, resource)
}

// RequireOwner fails with Forbidden unless requesterID owns the record.
func RequireOwner(ownerID, requesterID string, op Operation, resource Resource) error {
	if ownerID == "" || ownerID != requesterID {
		return apperror.Forbidden(fmt.Sprintf("You are not authorized to %s this %s.", op, singular(resource)))
	}
	return nil
}

func deny(subject Subject, verb Verb, resource Resource) error {
	err := apperror.Forbidden(fmt.Sprintf("role %q is not allowed to %s on %s", subject.Role, verb, resource))
	err.Context = map[string]interface{}{
		"role":     string(subject.Role),
		"verb":     verb.String(),
		"resource": string(resource),
	}
	return err
}

func singular(resource Resource) string {
	switch resource {
	case ResourceUsers:
		return "user"
	case ResourceProducts:
		return "product"
	case ResourceOrders:
		return "order"
	case ResourceCategories:
		return "category"
	default:
		return string(resource)
	}
}
