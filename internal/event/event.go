// Package event defines the inbound webhook payload shape and the closed
// set of event kinds the reconcilers handle.
package event

import "strings"

// AgentInstanceAttr is the participant attribute carrying an agent
// instance's external id on join events.
const AgentInstanceAttr = "AGENT_INSTANCE_ID"

// Event is the decoded webhook payload. Only the fields the reconcilers
// read are modeled; everything else in the body is ignored but retained
// verbatim in the durability log.
type Event struct {
	Event       string       `json:"event"`
	Room        *Room        `json:"room,omitempty"`
	Participant *Participant `json:"participant,omitempty"`
	Egress      *Egress      `json:"egress,omitempty"`
	Ingress     *Ingress     `json:"ingress,omitempty"`
}

// Room identifies the room an event belongs to. Name is tenant-scoped;
// SID is the platform-assigned instance id.
type Room struct {
	Name string `json:"name"`
	SID  string `json:"sid"`
}

// Participant carries identity and client details on join/leave events.
type Participant struct {
	Identity   string            `json:"identity"`
	Client     *ClientInfo       `json:"client,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// ClientInfo describes the joining client.
type ClientInfo struct {
	OS      string `json:"os"`
	Browser string `json:"browser"`
}

// Egress describes a recording/export resource on egress_* events.
type Egress struct {
	EgressID   string  `json:"egressId"`
	RoomName   string  `json:"roomName"`
	Status     string  `json:"status"`
	OutputType string  `json:"outputType"`
	File       *File   `json:"file,omitempty"`
	Stream     *Stream `json:"stream,omitempty"`
}

// File is the file-output shape of an egress payload.
type File struct {
	Location string `json:"location"`
}

// Stream is the stream-output shape of an egress payload.
type Stream struct {
	URL string `json:"url"`
}

// OutputLocation returns the final output location of a finished egress,
// first non-empty of file location and stream URL.
func (e *Egress) OutputLocation() string {
	if e.File != nil && e.File.Location != "" {
		return e.File.Location
	}
	if e.Stream != nil && e.Stream.URL != "" {
		return e.Stream.URL
	}
	return ""
}

// Ingress describes a media ingestion resource on ingress_* events.
type Ingress struct {
	IngressID string `json:"ingressId"`
	Name      string `json:"name"`
	InputType string `json:"inputType"`
	RoomName  string `json:"roomName"`
	URL       string `json:"url"`
	StreamKey string `json:"streamKey"`
}

// Well-known event type tags emitted by the platform.
const (
	TypeRoomStarted       = "room_started"
	TypeRoomFinished      = "room_finished"
	TypeParticipantJoined = "participant_joined"
	TypeParticipantLeft   = "participant_left"
	TypeEgressEnded       = "egress_ended"
)

// Kind is the closed set of event categories the router dispatches on.
type Kind int

const (
	KindUnknown Kind = iota
	KindRoomStarted
	KindRoomFinished
	KindParticipantJoined
	KindParticipantLeft
	KindEgress
	KindIngress
)

// ParseKind maps a raw event type tag to its Kind. Egress and ingress
// sub-events are grouped by prefix; everything unrecognized is Unknown.
func ParseKind(eventType string) Kind {
	switch eventType {
	case TypeRoomStarted:
		return KindRoomStarted
	case TypeRoomFinished:
		return KindRoomFinished
	case TypeParticipantJoined:
		return KindParticipantJoined
	case TypeParticipantLeft:
		return KindParticipantLeft
	}
	switch {
	case strings.HasPrefix(eventType, "egress_"):
		return KindEgress
	case strings.HasPrefix(eventType, "ingress_"):
		return KindIngress
	}
	return KindUnknown
}

// String returns the kind name for logging.
func (k Kind) String() string {
	switch k {
	case KindRoomStarted:
		return "room_started"
	case KindRoomFinished:
		return "room_finished"
	case KindParticipantJoined:
		return "participant_joined"
	case KindParticipantLeft:
		return "participant_left"
	case KindEgress:
		return "egress"
	case KindIngress:
		return "ingress"
	default:
		return "unknown"
	}
}
