// Package roles implements the ordered role hierarchy consulted by the
// gateway's role stage. The hierarchy is registered once, frozen, and then
// read-only; lookups are allocation-free map reads.
package roles

import "strings"

// Default role names, lowest to highest.
const (
	Employee    = "EMPLOYEE"
	Manager     = "MANAGER"
	Admin       = "ADMIN"
	MasterAdmin = "MASTER_ADMIN"
)

// Hierarchy is a totally ordered set of role names. Zero rank is lowest.
type Hierarchy struct {
	ranks map[string]int
	order []string
}

// New builds a hierarchy from role names ordered lowest to highest.
// Duplicate and blank names are ignored.
func New(ordered ...string) *Hierarchy {
	h := &Hierarchy{ranks: make(map[string]int, len(ordered))}
	for _, name := range ordered {
		name = strings.ToUpper(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if _, exists := h.ranks[name]; exists {
			continue
		}
		h.ranks[name] = len(h.order)
		h.order = append(h.order, name)
	}
	return h
}

// Default returns the standard four-tier hierarchy.
func Default() *Hierarchy {
	return New(Employee, Manager, Admin, MasterAdmin)
}

// IsValidRole reports whether the role name exists in the hierarchy.
func (h *Hierarchy) IsValidRole(role string) bool {
	_, ok := h.ranks[strings.ToUpper(strings.TrimSpace(role))]
	return ok
}

// HasAtLeast reports whether actual satisfies the required minimum role.
// Unknown roles never satisfy anything.
func (h *Hierarchy) HasAtLeast(actual, required string) bool {
	a, ok := h.ranks[strings.ToUpper(strings.TrimSpace(actual))]
	if !ok {
		return false
	}
	r, ok := h.ranks[strings.ToUpper(strings.TrimSpace(required))]
	if !ok {
		return false
	}
	return a >= r
}

// Manageable returns the roles at or below the given role: the set a user
// holding that role is allowed to administer. Unknown roles manage nothing.
func (h *Hierarchy) Manageable(role string) []string {
	rank, ok := h.ranks[strings.ToUpper(strings.TrimSpace(role))]
	if !ok {
		return nil
	}
	out := make([]string, 0, rank+1)
	for i := 0; i <= rank && i < len(h.order); i++ {
		out = append(out, h.order[i])
	}
	return out
}
