package webhook

import (
	"fmt"

	"github.com/greenroomhq/greenroom/internal/event"
	"github.com/greenroomhq/greenroom/internal/reconcile"
)

// Router dispatches a decoded event to its reconciler. It does not retry;
// each handler either completes or returns an error, and the caller
// records the outcome on the durability row.
type Router struct {
	rec *reconcile.Reconciler
}

// NewRouter creates a Router.
func NewRouter(rec *reconcile.Reconciler) (*Router, error) {
	if rec == nil {
		return nil, fmt.Errorf("webhook: reconciler is required")
	}
	return &Router{rec: rec}, nil
}

// Route applies an event. Unknown kinds are a no-op: the event is already
// durably stored before routing, so nothing is lost.
func (r *Router) Route(evt *event.Event) error {
	switch event.ParseKind(evt.Event) {
	case event.KindRoomStarted:
		return r.rec.RoomStarted(evt)
	case event.KindRoomFinished:
		return r.rec.RoomFinished(evt)
	case event.KindParticipantJoined:
		if err := r.rec.ParticipantJoined(evt); err != nil {
			return err
		}
		return r.rec.SnapshotDelta(+1)
	case event.KindParticipantLeft:
		if err := r.rec.ParticipantLeft(evt); err != nil {
			return err
		}
		return r.rec.SnapshotDelta(-1)
	case event.KindEgress:
		return r.rec.EgressChanged(evt)
	case event.KindIngress:
		return r.rec.IngressChanged(evt)
	case event.KindUnknown:
		return nil
	}
	return nil
}
