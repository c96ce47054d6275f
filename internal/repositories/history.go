package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/shared"
)

// DefaultHistoryLimit bounds Recent when no positive limit is given.
const DefaultHistoryLimit = 50

// HistoryRepository records played tracks.
type HistoryRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewHistoryRepository creates a new HistoryRepository with the given database connection
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db, now: time.Now}
}

// Record inserts a play of track, returning the stored entry with its generated ID and sequence
func (r *HistoryRepository) Record(track models.Track, playlistID string) (*models.HistoryEntry, error) {
	if track.ID == "" {
		return nil, fmt.Errorf("%w: track id is required", shared.ErrInvalidInput)
	}

	sequence, err := NextSequence(r.db, "history")
	if err != nil {
		return nil, fmt.Errorf("failed to generate sequence: %w", err)
	}

	entry := &models.HistoryEntry{
		ID:         shared.GenerateID(),
		Sequence:   sequence,
		Track:      track,
		PlaylistID: playlistID,
		PlayedAt:   r.now().UTC(),
	}

	query := `
		INSERT INTO history (id, sequence, track_id, title, artist, album, duration_label, thumbnail_url, playlist_id, played_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var thumbnail sql.NullString
	if track.ThumbnailURL != "" {
		thumbnail = sql.NullString{String: track.ThumbnailURL, Valid: true}
	}

	_, err = r.db.Exec(query,
		entry.ID,
		entry.Sequence,
		track.ID,
		track.Title,
		track.PrimaryArtistName,
		track.AlbumName,
		track.DurationLabel,
		thumbnail,
		playlistID,
		entry.PlayedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert history entry: %w", err)
	}

	return entry, nil
}

// Recent returns up to limit entries, newest first
func (r *HistoryRepository) Recent(limit int) ([]models.HistoryEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	query := `
		SELECT id, sequence, track_id, title, artist, album, duration_label, thumbnail_url, playlist_id, played_at
		FROM history
		ORDER BY sequence DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []models.HistoryEntry
	for rows.Next() {
		var (
			e         models.HistoryEntry
			thumbnail sql.NullString
		)
		err := rows.Scan(
			&e.ID, &e.Sequence,
			&e.Track.ID, &e.Track.Title, &e.Track.PrimaryArtistName, &e.Track.AlbumName, &e.Track.DurationLabel,
			&thumbnail, &e.PlaylistID, &e.PlayedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		e.Track.ThumbnailURL = thumbnail.String
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}

// Count returns the number of recorded plays
func (r *HistoryRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM history").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	return n, nil
}

// Clear deletes every entry. Sequence numbers keep increasing afterwards.
func (r *HistoryRepository) Clear() error {
	if _, err := r.db.Exec("DELETE FROM history"); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}
