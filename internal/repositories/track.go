package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pnavk/gMusic/internal/models"
)

// TrackRepository is the shared track library all providers sync into.
//
// Ingestion is a two-phase pipeline: ProcessTracks upserts arriving tracks
// with a pending mark, FinalizeProcessing drops rows the sync did not touch
// and clears the marks. Re-running a sync over the same payload is idempotent;
// rows are keyed by (service_id, id).
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new TrackRepository with the given database connection.
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// ProcessTracks upserts a batch of tracks, marking each as seen by the
// in-flight sync.
func (r *TrackRepository) ProcessTracks(ctx context.Context, tracks []models.Track) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO tracks (service_id, id, title, artist, album_artist, album, genre, duration, disc, number, file_extension, album_artwork, artist_artwork, pending)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
		ON CONFLICT (service_id, id) DO UPDATE SET
			title = excluded.title, artist = excluded.artist, album_artist = excluded.album_artist,
			album = excluded.album, genre = excluded.genre, duration = excluded.duration,
			disc = excluded.disc, number = excluded.number, file_extension = excluded.file_extension,
			album_artwork = excluded.album_artwork, artist_artwork = excluded.artist_artwork, pending = 1
	`

	for _, track := range tracks {
		albumArt, err := marshalArtwork(track.AlbumArtwork)
		if err != nil {
			return err
		}
		artistArt, err := marshalArtwork(track.ArtistArtwork)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, query,
			track.ServiceID, track.ID, track.Title, track.Artist, track.AlbumArtist,
			track.Album, track.Genre, track.Duration, track.Disc, track.Number,
			track.FileExtension, albumArt, artistArt,
		); err != nil {
			return fmt.Errorf("failed to upsert track %s/%s: %w", track.ServiceID, track.ID, err)
		}
	}

	return tx.Commit()
}

// FinalizeProcessing commits a sync for the service: tracks the sync did not
// re-ingest are removed, and the pending marks are cleared. No partial state
// is observable once this returns.
func (r *TrackRepository) FinalizeProcessing(ctx context.Context, serviceID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM tracks WHERE service_id = ? AND pending = 0", serviceID); err != nil {
		return fmt.Errorf("failed to remove stale tracks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "UPDATE tracks SET pending = 0 WHERE service_id = ?", serviceID); err != nil {
		return fmt.Errorf("failed to clear pending marks: %w", err)
	}

	return tx.Commit()
}

// RemoveService deletes every track the service ingested.
func (r *TrackRepository) RemoveService(ctx context.Context, serviceID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM tracks WHERE service_id = ?", serviceID); err != nil {
		return fmt.Errorf("failed to remove tracks for service %s: %w", serviceID, err)
	}
	return nil
}

// ListByService retrieves all tracks for one service ordered by album and number.
func (r *TrackRepository) ListByService(ctx context.Context, serviceID string) ([]models.Track, error) {
	query := `
		SELECT service_id, id, title, artist, album_artist, album, genre, duration, disc, number, file_extension, album_artwork, artist_artwork
		FROM tracks
		WHERE service_id = ?
		ORDER BY album ASC, disc ASC, number ASC
	`

	rows, err := r.db.QueryContext(ctx, query, serviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []models.Track
	for rows.Next() {
		var track models.Track
		var albumArt, artistArt string
		if err := rows.Scan(
			&track.ServiceID, &track.ID, &track.Title, &track.Artist, &track.AlbumArtist,
			&track.Album, &track.Genre, &track.Duration, &track.Disc, &track.Number,
			&track.FileExtension, &albumArt, &artistArt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		track.AlbumArtwork = unmarshalArtwork(albumArt)
		track.ArtistArtwork = unmarshalArtwork(artistArt)
		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

// CountByService returns the number of tracks the service ingested.
func (r *TrackRepository) CountByService(ctx context.Context, serviceID string) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tracks WHERE service_id = ?", serviceID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count tracks: %w", err)
	}
	return count, nil
}

func marshalArtwork(urls []string) (string, error) {
	if len(urls) == 0 {
		return "", nil
	}
	data, err := json.Marshal(urls)
	if err != nil {
		return "", fmt.Errorf("failed to marshal artwork: %w", err)
	}
	return string(data), nil
}

func unmarshalArtwork(data string) []string {
	if data == "" {
		return nil
	}
	var urls []string
	if err := json.Unmarshal([]byte(data), &urls); err != nil {
		return nil
	}
	return urls
}
