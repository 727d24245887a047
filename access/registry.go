// Package access provides an in-process role registry answering
// hasRole(role, caller) for the claims engine.
package access

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/warp/coverage-engine/claims"
)

// Registry is a thread-safe role -> members table.
type Registry struct {
	mu      sync.RWMutex
	members map[string]map[claims.Address]bool
}

func NewRegistry() *Registry {
	return &Registry{members: make(map[string]map[claims.Address]bool)}
}

// Grant gives role to addr. Idempotent.
func (r *Registry) Grant(role string, addr claims.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.members[role] == nil {
		r.members[role] = make(map[claims.Address]bool)
	}
	r.members[role][addr] = true
}

// Revoke takes role away from addr. Idempotent.
func (r *Registry) Revoke(role string, addr claims.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members[role], addr)
}

// HasRole implements claims.RoleChecker.
func (r *Registry) HasRole(_ context.Context, role string, caller claims.Address) bool {
	if caller.IsZero() {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.members[role][caller]
}

// Members lists the holders of role, sorted.
func (r *Registry) Members(role string) []claims.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]claims.Address, 0, len(r.members[role]))
	for a := range r.members[role] {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// GrantAll applies "role=address" pairs, as read from configuration.
func (r *Registry) GrantAll(grants []string) error {
	for _, g := range grants {
		role, addr, ok := strings.Cut(g, "=")
		role, addr = strings.TrimSpace(role), strings.TrimSpace(addr)
		if !ok || role == "" || addr == "" {
			return fmt.Errorf("access: malformed grant %q, want role=address", g)
		}
		r.Grant(role, claims.NewAddress(addr))
	}
	return nil
}
