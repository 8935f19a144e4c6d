package permission

import (
	"strings"
	"unicode"

	permissionDatamodel "github.com/qnxg/yqwork/internal/core/datamodel/permission"
)

// Wildcard is the super-permission: holding it grants everything, and
// requesting it is always satisfied.
const Wildcard = "*"

const separator = ":"

// Holding all three top-level namespaces is equivalent to holding Wildcard
// for the purpose of admin checks.
var adminNamespaces = []string{"system", "yq", "hdwsh"}

// Item is a single catalog entry granted through a role.
type Item struct {
	ID         int64  `json:"id" db:"id"`
	Name       string `json:"name" db:"name"`
	Permission string `json:"permission" db:"permission"`
}

// Set is the effective permission set of a user: the union of the items
// attached to every role the user holds.
type Set struct {
	items []Item
}

func NewSet(items []Item) Set {
	cp := make([]Item, len(items))
	copy(cp, items)
	return Set{items: cp}
}

// FromStrings builds a Set from bare permission strings.
func FromStrings(perms ...string) Set {
	items := make([]Item, 0, len(perms))
	for _, p := range perms {
		items = append(items, Item{Name: p, Permission: p})
	}
	return Set{items: items}
}

// Has reports whether the set grants requested. An item grants a request
// when it is the wildcard, equals the request, or is a whole-segment
// prefix of it: "yq:workHours" grants "yq:workHours:query" but never
// "yq:workHoursX".
func (s Set) Has(requested string) bool {
	if requested == Wildcard {
		return true
	}
	for _, it := range s.items {
		if grants(it.Permission, requested) {
			return true
		}
	}
	return false
}

// HasAny reports whether at least one of requested is granted.
func (s Set) HasAny(requested ...string) bool {
	for _, p := range requested {
		if s.Has(p) {
			return true
		}
	}
	return false
}

func (s Set) IsAdmin() bool {
	for _, it := range s.items {
		if it.Permission == Wildcard {
			return true
		}
	}
	for _, ns := range adminNamespaces {
		if !s.Has(ns) {
			return false
		}
	}
	return true
}

func (s Set) Items() []Item {
	cp := make([]Item, len(s.items))
	copy(cp, s.items)
	return cp
}

func (s Set) Strings() []string {
	out := make([]string, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, it.Permission)
	}
	return out
}

func (s Set) Len() int {
	return len(s.items)
}

func grants(owned, requested string) bool {
	if owned == "" {
		return false
	}
	if owned == Wildcard || owned == requested {
		return true
	}
	return strings.HasPrefix(requested, owned+separator)
}

// Actor is the authenticated caller as seen by domain services.
type Actor struct {
	UserID       int64
	DepartmentID int64
	Permissions  Set
}

func (a Actor) Has(requested string) bool {
	return a.Permissions.Has(requested)
}

func (a Actor) IsAdmin() bool {
	return a.Permissions.IsAdmin()
}

// ValidString reports whether p is a well-formed permission string:
// the wildcard, or one or more non-empty colon separated segments
// without whitespace or embedded wildcards.
func ValidString(p string) bool {
	if p == Wildcard {
		return true
	}
	if p == "" {
		return false
	}
	for _, seg := range strings.Split(p, separator) {
		if seg == "" || strings.Contains(seg, Wildcard) {
			return false
		}
		if strings.IndexFunc(seg, unicode.IsSpace) >= 0 {
			return false
		}
	}
	return true
}

func ToItem(p *permissionDatamodel.Permission) Item {
	return Item{ID: p.ID, Name: p.Name, Permission: p.Permission}
}

func ToDataModel(it Item) *permissionDatamodel.Permission {
	return &permissionDatamodel.Permission{ID: it.ID, Name: it.Name, Permission: it.Permission}
}

func (s Set) Summary() MyPermissions {
	return MyPermissions{Permissions: s.Strings(), IsAdmin: s.IsAdmin()}
}
