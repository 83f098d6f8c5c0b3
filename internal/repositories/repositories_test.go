package repositories

import (
	"context"
	"testing"

	"github.com/pnavk/gMusic/internal/models"
	tu "github.com/pnavk/gMusic/internal/testing"
)

func TestApiRepository(t *testing.T) {
	t.Run("Save and Get", func(t *testing.T) {
		db := tu.MustOpenDB(t)

		repo := NewApiRepository(db)
		record := models.ApiRecord{ID: 1, Service: models.ServiceGoogle, DeviceID: "device-1", ExtraData: `{"email":"a@b.c"}`}

		if err := repo.Save(record); err != nil {
			t.Fatalf("failed to save record: %v", err)
		}

		retrieved, err := repo.Get(1)
		if err != nil {
			t.Fatalf("failed to get record: %v", err)
		}

		if retrieved.Service != models.ServiceGoogle {
			t.Errorf("expected service %v, got %v", models.ServiceGoogle, retrieved.Service)
		}
		if retrieved.DeviceID != "device-1" {
			t.Errorf("expected device id device-1, got %s", retrieved.DeviceID)
		}
		if retrieved.ExtraData != record.ExtraData {
			t.Errorf("expected extra data %q, got %q", record.ExtraData, retrieved.ExtraData)
		}
	})

	t.Run("Save upserts", func(t *testing.T) {
		db := tu.MustOpenDB(t)

		repo := NewApiRepository(db)
		record := models.ApiRecord{ID: 1, Service: models.ServiceGoogle, DeviceID: "device-1"}

		if err := repo.Save(record); err != nil {
			t.Fatalf("failed to save record: %v", err)
		}

		record.ExtraData = `{"token":"rotated"}`
		if err := repo.Save(record); err != nil {
			t.Fatalf("failed to re-save record: %v", err)
		}

		records, err := repo.List()
		if err != nil {
			t.Fatalf("failed to list records: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("expected 1 record after upsert, got %d", len(records))
		}
		if records[0].ExtraData != record.ExtraData {
			t.Errorf("expected updated extra data, got %q", records[0].ExtraData)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := tu.MustOpenDB(t)

		repo := NewApiRepository(db)
		if err := repo.Save(models.ApiRecord{ID: 1, Service: models.ServiceTunez}); err != nil {
			t.Fatalf("failed to save record: %v", err)
		}

		if err := repo.Delete(1); err != nil {
			t.Fatalf("failed to delete record: %v", err)
		}

		if _, err := repo.Get(1); err == nil {
			t.Error("expected error when getting deleted record")
		}
	})

	t.Run("List ordered by id", func(t *testing.T) {
		db := tu.MustOpenDB(t)

		repo := NewApiRepository(db)
		for _, id := range []int{3, 1, 2} {
			if err := repo.Save(models.ApiRecord{ID: id, Service: models.ServiceGoogle}); err != nil {
				t.Fatalf("failed to save record %d: %v", id, err)
			}
		}

		records, err := repo.List()
		if err != nil {
			t.Fatalf("failed to list records: %v", err)
		}
		if len(records) != 3 {
			t.Fatalf("expected 3 records, got %d", len(records))
		}
		for i, want := range []int{1, 2, 3} {
			if records[i].ID != want {
				t.Errorf("record %d has id %d, want %d", i, records[i].ID, want)
			}
		}
	})

	t.Run("NextID allocates monotonically", func(t *testing.T) {
		db := tu.MustOpenDB(t)

		repo := NewApiRepository(db)
		first, err := repo.NextID()
		if err != nil {
			t.Fatalf("failed to allocate id: %v", err)
		}
		second, err := repo.NextID()
		if err != nil {
			t.Fatalf("failed to allocate id: %v", err)
		}
		if second <= first {
			t.Errorf("expected %d > %d", second, first)
		}
	})
}

func TestTrackRepository(t *testing.T) {
	ctx := context.Background()

	sample := func(serviceID string) []models.Track {
		return []models.Track{
			{ID: "1", ServiceID: serviceID, Title: "Track One", Artist: "Artist", Album: "Album", Number: 1},
			{ID: "2", ServiceID: serviceID, Title: "Track Two", Artist: "Artist", Album: "Album", Number: 2,
				AlbumArtwork: []string{"http://srv/art?a"}, ArtistArtwork: []string{"http://srv/art?b"}},
		}
	}

	t.Run("Process and Finalize", func(t *testing.T) {
		db := tu.MustOpenDB(t)

		repo := NewTrackRepository(db)
		if err := repo.ProcessTracks(ctx, sample("svc")); err != nil {
			t.Fatalf("failed to process tracks: %v", err)
		}
		if err := repo.FinalizeProcessing(ctx, "svc"); err != nil {
			t.Fatalf("failed to finalize: %v", err)
		}

		count, err := repo.CountByService(ctx, "svc")
		if err != nil {
			t.Fatalf("failed to count tracks: %v", err)
		}
		if count != 2 {
			t.Errorf("expected 2 tracks, got %d", count)
		}
	})

	t.Run("Re-sync is idempotent", func(t *testing.T) {
		db := tu.MustOpenDB(t)

		repo := NewTrackRepository(db)
		for i := 0; i < 3; i++ {
			if err := repo.ProcessTracks(ctx, sample("svc")); err != nil {
				t.Fatalf("failed to process tracks: %v", err)
			}
			if err := repo.FinalizeProcessing(ctx, "svc"); err != nil {
				t.Fatalf("failed to finalize: %v", err)
			}
		}

		count, err := repo.CountByService(ctx, "svc")
		if err != nil {
			t.Fatalf("failed to count tracks: %v", err)
		}
		if count != 2 {
			t.Errorf("expected 2 tracks after repeated sync, got %d", count)
		}
	})

	t.Run("Finalize removes stale tracks", func(t *testing.T) {
		db := tu.MustOpenDB(t)

		repo := NewTrackRepository(db)
		if err := repo.ProcessTracks(ctx, sample("svc")); err != nil {
			t.Fatalf("failed to process tracks: %v", err)
		}
		if err := repo.FinalizeProcessing(ctx, "svc"); err != nil {
			t.Fatalf("failed to finalize: %v", err)
		}

		// The next sync only sees track 1; track 2 left the remote catalog.
		if err := repo.ProcessTracks(ctx, sample("svc")[:1]); err != nil {
			t.Fatalf("failed to process tracks: %v", err)
		}
		if err := repo.FinalizeProcessing(ctx, "svc"); err != nil {
			t.Fatalf("failed to finalize: %v", err)
		}

		tracks, err := repo.ListByService(ctx, "svc")
		if err != nil {
			t.Fatalf("failed to list tracks: %v", err)
		}
		if len(tracks) != 1 {
			t.Fatalf("expected 1 track, got %d", len(tracks))
		}
		if tracks[0].ID != "1" {
			t.Errorf("expected surviving track 1, got %s", tracks[0].ID)
		}
	})

	t.Run("Artwork round trip", func(t *testing.T) {
		db := tu.MustOpenDB(t)

		repo := NewTrackRepository(db)
		if err := repo.ProcessTracks(ctx, sample("svc")); err != nil {
			t.Fatalf("failed to process tracks: %v", err)
		}
		if err := repo.FinalizeProcessing(ctx, "svc"); err != nil {
			t.Fatalf("failed to finalize: %v", err)
		}

		tracks, err := repo.ListByService(ctx, "svc")
		if err != nil {
			t.Fatalf("failed to list tracks: %v", err)
		}

		var withArt *models.Track
		for i := range tracks {
			if tracks[i].ID == "2" {
				withArt = &tracks[i]
			}
		}
		if withArt == nil {
			t.Fatal("track 2 missing")
		}
		if len(withArt.AlbumArtwork) != 1 || withArt.AlbumArtwork[0] != "http://srv/art?a" {
			t.Errorf("album artwork = %v", withArt.AlbumArtwork)
		}
		if len(withArt.ArtistArtwork) != 1 || withArt.ArtistArtwork[0] != "http://srv/art?b" {
			t.Errorf("artist artwork = %v", withArt.ArtistArtwork)
		}
	})

	t.Run("RemoveService scopes deletion", func(t *testing.T) {
		db := tu.MustOpenDB(t)

		repo := NewTrackRepository(db)
		for _, svc := range []string{"a", "b"} {
			if err := repo.ProcessTracks(ctx, sample(svc)); err != nil {
				t.Fatalf("failed to process tracks: %v", err)
			}
			if err := repo.FinalizeProcessing(ctx, svc); err != nil {
				t.Fatalf("failed to finalize: %v", err)
			}
		}

		if err := repo.RemoveService(ctx, "a"); err != nil {
			t.Fatalf("failed to remove service: %v", err)
		}

		countA, _ := repo.CountByService(ctx, "a")
		countB, _ := repo.CountByService(ctx, "b")
		if countA != 0 {
			t.Errorf("expected 0 tracks for removed service, got %d", countA)
		}
		if countB != 2 {
			t.Errorf("expected other service untouched, got %d", countB)
		}
	})
}
