// Package access implements the role-based authorization gate consulted before every
// service operation.
package access

import (
	"fmt"
	"strings"
)

// Role is the subject's authorization role.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// DefaultRole is assigned to users created without an explicit role.
const DefaultRole = RoleUser

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Resource names one of the manipulable entity types.
type Resource string

const (
	ResourceUsers      Resource = "users"
	ResourceProducts   Resource = "products"
	ResourceOrders     Resource = "orders"
	ResourceCategories Resource = "categories"
)

// Operation is the action half of a Verb.
type Operation string

const (
	OpCreate Operation = "create"
	OpRead   Operation = "read"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Scope is the ownership half of a Verb.
type Scope string

const (
	ScopeAny Scope = "any"
	ScopeOwn Scope = "own"
)

// Verb combines an operation with an ownership scope, written "read:any".
type Verb struct {
	Op    Operation
	Scope Scope
}

// Common verbs.
var (
	CreateAny = Verb{OpCreate, ScopeAny}
	CreateOwn = Verb{OpCreate, ScopeOwn}
	ReadAny   = Verb{OpRead, ScopeAny}
	ReadOwn   = Verb{OpRead, ScopeOwn}
	UpdateAny = Verb{OpUpdate, ScopeAny}
	UpdateOwn = Verb{OpUpdate, ScopeOwn}
	DeleteAny = Verb{OpDelete, ScopeAny}
	DeleteOwn = Verb{OpDelete, ScopeOwn}
)

func (v Verb) String() string {
	return string(v.Op) + ":" + string(v.Scope)
}

// Any returns the "any" variant of v.
func (v Verb) Any() Verb {
	return Verb{Op: v.Op, Scope: ScopeAny}
}

// ParseVerb parses the textual "operation:scope" form.
func ParseVerb(s string) (Verb, error) {
	op, scope, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return Verb{}, fmt.Errorf("invalid verb %q: expected operation:scope", s)
	}
	v := Verb{Op: Operation(op), Scope: Scope(scope)}
	switch v.Op {
	case OpCreate, OpRead, OpUpdate, OpDelete:
	default:
		return Verb{}, fmt.Errorf("invalid verb %q: unknown operation", s)
	}
	if v.Scope != ScopeAny && v.Scope != ScopeOwn {
		return Verb{}, fmt.Errorf("invalid verb %q: unknown scope", s)
	}
	return v, nil
}

// MustParseVerb is ParseVerb for static tables.
func MustParseVerb(s string) Verb {
	v, err := ParseVerb(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Subject is the authenticated actor making a request.
type Subject struct {
	ID    string
	Email string
	Role  Role
}
