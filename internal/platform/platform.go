// Package platform is the admin client for the media server's listing
// APIs. The pull-based resource sync uses it to patch local state that
// webhooks missed; it is read-only and never authoritative for writes.
package platform

import "context"

// Room is a live room as reported by the platform.
type Room struct {
	SID             string `json:"sid"`
	Name            string `json:"name"`
	NumParticipants int    `json:"numParticipants"`
}

// EgressInfo is a live egress as reported by the platform listing.
type EgressInfo struct {
	EgressID   string `json:"egressId"`
	RoomName   string `json:"roomName"`
	Status     string `json:"status"`
	OutputType string `json:"outputType"`
	OutputURL  string `json:"outputUrl"`
	Active     bool   `json:"active"`
}

// IngressInfo is a live ingress as reported by the platform listing.
type IngressInfo struct {
	IngressID string `json:"ingressId"`
	Name      string `json:"name"`
	RoomName  string `json:"roomName"`
	InputType string `json:"inputType"`
	URL       string `json:"url"`
	StreamKey string `json:"streamKey"`
	Active    bool   `json:"active"`
}

// Client lists live resources from the media server. Implementations
// must honor context cancellation; every call is network I/O.
type Client interface {
	ListRooms(ctx context.Context) ([]Room, error)
	ListEgress(ctx context.Context) ([]EgressInfo, error)
	ListIngress(ctx context.Context) ([]IngressInfo, error)
}
