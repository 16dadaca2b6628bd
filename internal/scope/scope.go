// Package scope encodes tenant ownership into room names and participant
// identities. Events from the media platform carry no tenant field, so the
// `prj-<tenant>-` prefix on scoped names is the only way ownership is
// recovered on the event path.
package scope

import "strings"

// Prefix marks a tenant-scoped name.
const Prefix = "prj-"

// AgentPrefix marks a participant identity as a server-side agent.
const AgentPrefix = "agent_"

// Scope prepends the tenant prefix to a raw name.
func Scope(name, tenantID string) string {
	return Prefix + tenantID + "-" + name
}

// Unscope strips the given tenant's prefix from a scoped name. If the name
// does not carry that tenant's prefix it is returned unchanged; callers
// treat that as foreign and must not surface it for this tenant.
func Unscope(scoped, tenantID string) string {
	prefix := Prefix + tenantID + "-"
	if !strings.HasPrefix(scoped, prefix) {
		return scoped
	}
	return strings.TrimPrefix(scoped, prefix)
}

// TenantFromName parses the tenant id out of a scoped name without knowing
// the tenant in advance. Returns "" when the name carries no recognizable
// prefix. Raw names that happen to start with "prj-" are indistinguishable
// from scoped ones; rejecting such names is the room-creation layer's job,
// not the codec's.
func TenantFromName(scoped string) string {
	if !strings.HasPrefix(scoped, Prefix) {
		return ""
	}
	rest := scoped[len(Prefix):]
	i := strings.Index(rest, "-")
	if i <= 0 {
		return ""
	}
	return rest[:i]
}

// TenantIDPtr returns the parsed tenant id as a nullable pointer for
// storage on rows that may belong to no known tenant.
func TenantIDPtr(scoped string) *string {
	id := TenantFromName(scoped)
	if id == "" {
		return nil
	}
	return &id
}

// BareIdentity strips any tenant prefix from a participant identity.
func BareIdentity(identity string) string {
	if id := TenantFromName(identity); id != "" {
		return Unscope(identity, id)
	}
	return identity
}

// IsAgentIdentity reports whether a participant identity names a
// registered agent by convention, after any tenant prefix is removed.
func IsAgentIdentity(identity string) bool {
	return strings.HasPrefix(BareIdentity(identity), AgentPrefix)
}
