package types

import "strings"

// RegisterAlias makes alias resolve to the class registered as target.
func (r *Registry) RegisterAlias(alias, target string) {
	alias = strings.TrimSpace(alias)
	target = strings.TrimSpace(target)
	if alias == "" || target == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases[alias] = target
}

// Aliases returns a copy of the registered aliases.
func (r *Registry) Aliases() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.aliases))
	for alias, target := range r.aliases {
		out[alias] = target
	}
	return out
}
