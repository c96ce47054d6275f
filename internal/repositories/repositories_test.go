package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	shared.ConfigureDatabase(db, ":memory:", 1, 1)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(db, "history")
		if err != nil {
			t.Fatalf("NextSequence() error = %v", err)
		}
		if got != want {
			t.Errorf("NextSequence() = %d, want %d", got, want)
		}
	}

	t.Run("missing sequence table", func(t *testing.T) {
		if _, err := NextSequence(db, "nope"); err == nil {
			t.Error("expected error for missing sequence table")
		}
	})
}

func TestHistoryRepository(t *testing.T) {
	track := func(id string) models.Track {
		return models.Track{ID: id, Title: "Song " + id, PrimaryArtistName: "Artist", DurationLabel: "3:00"}
	}

	t.Run("Record", func(t *testing.T) {
		repo := NewHistoryRepository(setupTestDB(t))
		fixed := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
		repo.now = func() time.Time { return fixed }

		tr := track("a")
		tr.ThumbnailURL = "https://img/a.jpg"
		entry, err := repo.Record(tr, "PL1")
		if err != nil {
			t.Fatalf("failed to record: %v", err)
		}
		if entry.ID == "" || entry.Sequence != 1 {
			t.Errorf("expected ID and sequence 1, got %q/%d", entry.ID, entry.Sequence)
		}

		entries, err := repo.Recent(10)
		if err != nil {
			t.Fatalf("failed to read history: %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(entries))
		}
		got := entries[0]
		if got.Track != tr || got.PlaylistID != "PL1" || !got.PlayedAt.Equal(fixed) {
			t.Errorf("round trip mismatch: %+v", got)
		}
	})

	t.Run("Record requires a track id", func(t *testing.T) {
		repo := NewHistoryRepository(setupTestDB(t))
		if _, err := repo.Record(models.Track{Title: "x"}, ""); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Recent is newest first and limited", func(t *testing.T) {
		repo := NewHistoryRepository(setupTestDB(t))
		for _, id := range []string{"a", "b", "c", "d"} {
			if _, err := repo.Record(track(id), ""); err != nil {
				t.Fatalf("failed to record %s: %v", id, err)
			}
		}

		entries, err := repo.Recent(2)
		if err != nil {
			t.Fatalf("failed to read history: %v", err)
		}
		if len(entries) != 2 || entries[0].Track.ID != "d" || entries[1].Track.ID != "c" {
			t.Errorf("unexpected order: %+v", entries)
		}
	})

	t.Run("Clear keeps sequences increasing", func(t *testing.T) {
		repo := NewHistoryRepository(setupTestDB(t))
		repo.Record(track("a"), "")
		repo.Record(track("b"), "")

		if err := repo.Clear(); err != nil {
			t.Fatalf("failed to clear: %v", err)
		}
		if n, _ := repo.Count(); n != 0 {
			t.Errorf("expected empty history, got %d", n)
		}

		entry, err := repo.Record(track("c"), "")
		if err != nil {
			t.Fatalf("failed to record: %v", err)
		}
		if entry.Sequence != 3 {
			t.Errorf("expected sequence 3, got %d", entry.Sequence)
		}
	})

	t.Run("errors after close", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewHistoryRepository(db)
		db.Close()

		if _, err := repo.Record(track("a"), ""); err == nil {
			t.Error("expected Record to fail on closed database")
		}
		if _, err := repo.Recent(1); err == nil {
			t.Error("expected Recent to fail on closed database")
		}
		if err := repo.Clear(); err == nil {
			t.Error("expected Clear to fail on closed database")
		}
	})
}
