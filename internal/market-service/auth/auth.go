// Package auth implementa o Authorizer do ledger com listas estáticas vindas
// do config (OWNER_IDS / RESOLVER_IDS, separadas por vírgula). Mantém o core
// livre de qualquer preocupação de identidade.
package auth

import "strings"

type StaticAuthorizer struct {
	owners    map[string]struct{}
	resolvers map[string]struct{}
}

// NewStatic monta o authorizer a partir das listas "a,b,c" do config.
func NewStatic(ownerIDs, resolverIDs string) *StaticAuthorizer {
	return &StaticAuthorizer{
		owners:    parseList(ownerIDs),
		resolvers: parseList(resolverIDs),
	}
}

func (a *StaticAuthorizer) IsOwner(id string) bool {
	_, ok := a.owners[id]
	return ok
}

func (a *StaticAuthorizer) IsAuthorizedResolver(id string) bool {
	_, ok := a.resolvers[id]
	return ok
}

func parseList(csv string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, part := range strings.Split(csv, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out[p] = struct{}{}
		}
	}
	return out
}
