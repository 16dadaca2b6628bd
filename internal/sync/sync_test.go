package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/greenroomhq/greenroom/internal/models"
	"github.com/greenroomhq/greenroom/internal/platform"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// stubClient is a platform.Client returning canned listings.
type stubClient struct {
	rooms   []platform.Room
	egress  []platform.EgressInfo
	ingress []platform.IngressInfo
	err     error
}

func (s *stubClient) ListRooms(context.Context) ([]platform.Room, error) {
	return s.rooms, s.err
}
func (s *stubClient) ListEgress(context.Context) ([]platform.EgressInfo, error) {
	return s.egress, s.err
}
func (s *stubClient) ListIngress(context.Context) ([]platform.IngressInfo, error) {
	return s.ingress, s.err
}

func openSyncTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.EgressResource{}, &models.IngressResource{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func newSyncer(t *testing.T, db *gorm.DB, client platform.Client) *Syncer {
	t.Helper()
	s, err := New(Opts{DB: db, Client: client})
	if err != nil {
		t.Fatalf("new syncer: %v", err)
	}
	return s
}

func TestSyncEgress_CreatesMissedRow(t *testing.T) {
	db := openSyncTestDB(t)
	client := &stubClient{egress: []platform.EgressInfo{
		{EgressID: "EG_1", RoomName: "prj-abc-standup", Status: "EGRESS_ACTIVE", Active: true},
	}}

	if err := newSyncer(t, db, client).SyncEgress(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var row models.EgressResource
	if err := db.First(&row, "id = ?", "EG_1").Error; err != nil {
		t.Fatalf("row not created from listing: %v", err)
	}
	if !row.IsActive {
		t.Error("is_active = false, want true")
	}
	if row.TenantID == nil || *row.TenantID != "abc" {
		t.Errorf("tenant id = %v, want abc", row.TenantID)
	}
}

func TestSyncEgress_DeactivatesVanishedRow(t *testing.T) {
	db := openSyncTestDB(t)
	db.Create(&models.EgressResource{ID: "EG_old", RoomName: "prj-abc-standup", IsActive: true, OutputURL: "s3://bucket/rec.mp4"})

	client := &stubClient{} // platform reports nothing live
	if err := newSyncer(t, db, client).SyncEgress(context.Background()); err != nil {
		t.Fatal(err)
	}

	var row models.EgressResource
	db.First(&row, "id = ?", "EG_old")
	if row.IsActive {
		t.Error("is_active = true, want false after vanished from listing")
	}
	if row.OutputURL != "s3://bucket/rec.mp4" {
		t.Errorf("output url = %q, want preserved", row.OutputURL)
	}
}

func TestSyncEgress_DoesNotEraseOutputURL(t *testing.T) {
	db := openSyncTestDB(t)
	db.Create(&models.EgressResource{ID: "EG_1", RoomName: "prj-abc-standup", IsActive: true, OutputURL: "s3://bucket/rec.mp4"})

	// Listing still reports the egress but without an output URL.
	client := &stubClient{egress: []platform.EgressInfo{
		{EgressID: "EG_1", RoomName: "prj-abc-standup", Status: "EGRESS_COMPLETE", Active: false},
	}}
	if err := newSyncer(t, db, client).SyncEgress(context.Background()); err != nil {
		t.Fatal(err)
	}

	var row models.EgressResource
	db.First(&row, "id = ?", "EG_1")
	if row.OutputURL != "s3://bucket/rec.mp4" {
		t.Errorf("output url = %q, want untouched", row.OutputURL)
	}
	if row.IsActive {
		t.Error("is_active = true, want false from listing")
	}
	if row.Status != "EGRESS_COMPLETE" {
		t.Errorf("status = %q", row.Status)
	}
}

func TestSyncIngress_DeactivationOnlyThroughSync(t *testing.T) {
	db := openSyncTestDB(t)
	db.Create(&models.IngressResource{ID: "IN_1", RoomName: "prj-abc-standup", IsActive: true, StreamKey: "sk_123"})

	client := &stubClient{}
	if err := newSyncer(t, db, client).SyncIngress(context.Background()); err != nil {
		t.Fatal(err)
	}

	var row models.IngressResource
	db.First(&row, "id = ?", "IN_1")
	if row.IsActive {
		t.Error("is_active = true, want false")
	}
	if row.StreamKey != "sk_123" {
		t.Errorf("stream key = %q, want preserved", row.StreamKey)
	}
}

func TestSyncIngress_UpsertsLiveRow(t *testing.T) {
	db := openSyncTestDB(t)
	client := &stubClient{ingress: []platform.IngressInfo{
		{IngressID: "IN_1", Name: "obs-feed", RoomName: "prj-abc-standup", InputType: "rtmp", URL: "rtmp://ingest/live", Active: true},
	}}

	if err := newSyncer(t, db, client).SyncIngress(context.Background()); err != nil {
		t.Fatal(err)
	}

	var row models.IngressResource
	if err := db.First(&row, "id = ?", "IN_1").Error; err != nil {
		t.Fatalf("row not created: %v", err)
	}
	if !row.IsActive || row.InputType != "rtmp" {
		t.Errorf("row = %+v", row)
	}
}

func TestSync_ListingFailureIsSoft(t *testing.T) {
	db := openSyncTestDB(t)
	db.Create(&models.EgressResource{ID: "EG_1", IsActive: true})

	client := &stubClient{err: errors.New("upstream timeout")}
	err := newSyncer(t, db, client).SyncEgress(context.Background())
	if err == nil {
		t.Fatal("expected error to surface to caller")
	}

	// Local rows are untouched; callers fall back to serving them.
	var row models.EgressResource
	db.First(&row, "id = ?", "EG_1")
	if !row.IsActive {
		t.Error("local row mutated despite listing failure")
	}
}
