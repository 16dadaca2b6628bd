package models

import (
	"reflect"
	"strings"
	"testing"
)

// gormTag extracts the gorm tag from a struct field.
func gormTag(t *testing.T, typ reflect.Type, fieldName string) string {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	return f.Tag.Get("gorm")
}

// assertGormTag checks that a struct field's gorm tag contains the expected value.
func assertGormTag(t *testing.T, typ reflect.Type, fieldName, expected string) {
	t.Helper()
	tag := gormTag(t, typ, fieldName)
	if !strings.Contains(tag, expected) {
		t.Errorf("%s.%s gorm tag = %q, want to contain %q", typ.Name(), fieldName, tag, expected)
	}
}

func TestWebhookEvent_Fields(t *testing.T) {
	typ := reflect.TypeOf(WebhookEvent{})

	assertGormTag(t, typ, "ID", "primaryKey")
	assertGormTag(t, typ, "ID", "size:36")
	assertGormTag(t, typ, "EventType", "size:64")
	assertGormTag(t, typ, "EventType", "index")
	assertGormTag(t, typ, "Payload", "type:text")
	assertGormTag(t, typ, "Processed", "index")
	assertGormTag(t, typ, "LastError", "type:text")
}

func TestSession_Fields(t *testing.T) {
	typ := reflect.TypeOf(Session{})

	assertGormTag(t, typ, "SID", "primaryKey")
	assertGormTag(t, typ, "SID", "column:sid")
	assertGormTag(t, typ, "RoomName", "index")
	assertGormTag(t, typ, "Status", "default:active")
	assertGormTag(t, typ, "Status", "index")
	assertGormTag(t, typ, "TenantID", "index")

	if _, ok := typ.FieldByName("EndTime"); !ok {
		t.Error("Session.EndTime: field not found")
	}
}

func TestParticipantRecord_ActiveLeaveStates(t *testing.T) {
	if ParticipantActive == ParticipantLeft {
		t.Error("participant status constants must differ")
	}
	typ := reflect.TypeOf(ParticipantRecord{})
	assertGormTag(t, typ, "SessionID", "index")
	assertGormTag(t, typ, "Status", "index")
}

func TestAgentRoomMembership_Fields(t *testing.T) {
	typ := reflect.TypeOf(AgentRoomMembership{})
	assertGormTag(t, typ, "AgentID", "index")
	assertGormTag(t, typ, "RoomName", "index")

	f, ok := typ.FieldByName("InstanceID")
	if !ok {
		t.Fatal("AgentRoomMembership.InstanceID: field not found")
	}
	if f.Type.String() != "*uint" {
		t.Errorf("InstanceID type = %q, want *uint (optional FK)", f.Type.String())
	}
}

func TestResources_SharedUpsertKeys(t *testing.T) {
	for _, typ := range []reflect.Type{
		reflect.TypeOf(EgressResource{}),
		reflect.TypeOf(IngressResource{}),
	} {
		assertGormTag(t, typ, "ID", "primaryKey")
		assertGormTag(t, typ, "ID", "size:64")
		assertGormTag(t, typ, "IsActive", "index")
		assertGormTag(t, typ, "TenantID", "index")
	}
}
