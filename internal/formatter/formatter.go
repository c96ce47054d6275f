// package formatter renders track lists and play history as CSV, Markdown or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/shared"
)

// Format selects an output encoding.
type Format string

const (
	FormatText     Format = "text"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

// ParseFormat accepts text, csv, markdown and md, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want text, csv or markdown)", shared.ErrInvalidFlag, s)
	}
}

// Tracks renders a titled track list in format.
func Tracks(format Format, title string, tracks []models.Track) ([]byte, error) {
	switch format {
	case FormatCSV:
		return TracksToCSV(tracks)
	case FormatMarkdown:
		return TracksToMarkdown(title, tracks), nil
	default:
		return TracksToText(title, tracks), nil
	}
}

// History renders play history in format.
func History(format Format, entries []models.HistoryEntry) ([]byte, error) {
	switch format {
	case FormatCSV:
		return HistoryToCSV(entries)
	case FormatMarkdown:
		return HistoryToMarkdown(entries), nil
	default:
		return HistoryToText(entries), nil
	}
}

// TracksToCSV writes columns: ID, Title, Artist, Album, Duration, Thumbnail
func TracksToCSV(tracks []models.Track) ([]byte, error) {
	rows := make([][]string, 0, len(tracks)+1)
	rows = append(rows, []string{"ID", "Title", "Artist", "Album", "Duration", "Thumbnail"})
	for _, t := range tracks {
		rows = append(rows, []string{t.ID, t.Title, t.PrimaryArtistName, t.AlbumName, t.DurationLabel, t.ThumbnailURL})
	}
	return writeCSV(rows)
}

// TracksToMarkdown renders a numbered list under a heading.
func TracksToMarkdown(title string, tracks []models.Track) []byte {
	var buf bytes.Buffer

	if title != "" {
		fmt.Fprintf(&buf, "# %s\n\n", title)
	}
	fmt.Fprintf(&buf, "**Tracks**: %d\n\n", len(tracks))

	for i, t := range tracks {
		albumPart := ""
		if t.AlbumName != "" {
			albumPart = fmt.Sprintf(" (%s)", t.AlbumName)
		}
		fmt.Fprintf(&buf, "%d. %s%s [%s]\n", i+1, t.Label(), albumPart, durationOrUnknown(t.DurationLabel))
	}

	return buf.Bytes()
}

// TracksToText renders one line per track, prefixed with its id.
func TracksToText(title string, tracks []models.Track) []byte {
	var buf bytes.Buffer

	if title != "" {
		fmt.Fprintf(&buf, "%s\n", title)
	}
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(tracks))

	for i, t := range tracks {
		fmt.Fprintf(&buf, "%d. %s  %s  %s\n", i+1, t.ID, t.Label(), durationOrUnknown(t.DurationLabel))
	}

	return buf.Bytes()
}

// HistoryToCSV writes columns: Sequence, Played At, ID, Title, Artist, Album, Playlist
func HistoryToCSV(entries []models.HistoryEntry) ([]byte, error) {
	rows := make([][]string, 0, len(entries)+1)
	rows = append(rows, []string{"Sequence", "Played At", "ID", "Title", "Artist", "Album", "Playlist"})
	for _, e := range entries {
		rows = append(rows, []string{
			fmt.Sprint(e.Sequence),
			e.PlayedAt.Format(time.RFC3339),
			e.Track.ID,
			e.Track.Title,
			e.Track.PrimaryArtistName,
			e.Track.AlbumName,
			e.PlaylistID,
		})
	}
	return writeCSV(rows)
}

func HistoryToMarkdown(entries []models.HistoryEntry) []byte {
	var buf bytes.Buffer
	buf.WriteString("# History\n\n")
	buf.WriteString("| # | Played | Track | Album |\n")
	buf.WriteString("|---|--------|-------|-------|\n")
	for _, e := range entries {
		fmt.Fprintf(&buf, "| %d | %s | %s | %s |\n",
			e.Sequence, e.PlayedAt.Format(time.DateTime), escapeCell(e.Track.Label()), escapeCell(e.Track.AlbumName))
	}
	return buf.Bytes()
}

func HistoryToText(entries []models.HistoryEntry) []byte {
	var buf bytes.Buffer
	if len(entries) == 0 {
		buf.WriteString("No plays recorded.\n")
		return buf.Bytes()
	}
	for _, e := range entries {
		fmt.Fprintf(&buf, "#%d  %s  %s\n", e.Sequence, e.PlayedAt.Local().Format(time.DateTime), e.Track.Label())
	}
	return buf.Bytes()
}

func writeCSV(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

func durationOrUnknown(label string) string {
	if label == "" {
		return "?:??"
	}
	return label
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
