// Package youtube resolves queue requests (URLs or search terms) to
// playable songs via the yt-dlp binary, and offers a flat-playlist
// search that returns display/URL candidates.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"sitzbot/backend/internal/playbacktypes"
)

// Executable is the yt-dlp binary name; exec looks it up on PATH each
// time a subprocess is started.
var Executable = "yt-dlp"

// FindExecutable resolves name to an absolute path via PATH, returning
// "" if it can't be found.
func FindExecutable(name string) string {
	if path, err := exec.LookPath(name); err == nil {
		return path
	}
	return ""
}

type ytDlpEntry struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Channel  string  `json:"channel"`
	Duration float64 `json:"duration"`
}

// Resolve fetches metadata for a URL or search term and returns a Song
// ready to enqueue. queuedBy is stamped onto the result.
func Resolve(ctx context.Context, urlOrSearchTerms, queuedBy string, log *zap.Logger) (playbacktypes.Song, error) {
	log.Info("fetching song info", zap.String("query", urlOrSearchTerms))

	args := []string{
		urlOrSearchTerms,
		"--default-search", "ytsearch",
		"--no-playlist",
		"-f", "bestaudio[ext=m4a]/bestaudio/best",
		"-j",
	}

	cmd := exec.CommandContext(ctx, Executable, args...)
	out, err := cmd.Output()
	if err != nil {
		return playbacktypes.Song{}, fmt.Errorf("yt-dlp metadata fetch failed: %w", err)
	}

	line := strings.SplitN(strings.TrimSpace(string(out)), "\n", 2)[0]

	var entry ytDlpEntry
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		return playbacktypes.Song{}, fmt.Errorf("parsing yt-dlp metadata: %w", err)
	}
	if entry.Title == "" {
		return playbacktypes.Song{}, fmt.Errorf("no title found in yt-dlp metadata")
	}

	song := playbacktypes.Song{
		URL:      "https://youtu.be/" + entry.ID,
		VideoID:  entry.ID,
		Title:    entry.Title,
		Channel:  entry.Channel,
		QueuedBy: queuedBy,
		Duration: time.Duration(entry.Duration * float64(time.Second)),
	}

	log.Info("found song",
		zap.String("title", song.Title),
		zap.String("channel", song.Channel),
		zap.String("id", song.VideoID),
		zap.Duration("duration", song.Duration))

	return song, nil
}

// SearchResult is one autocomplete candidate.
type SearchResult struct {
	Display string
	URL     string
}

// Search runs a flat-playlist yt-dlp search and returns up to maxResults
// display/URL candidates.
func Search(ctx context.Context, query string, maxResults int, log *zap.Logger) ([]SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	log.Info("searching youtube", zap.String("query", query), zap.Int("max_results", maxResults))

	args := []string{
		fmt.Sprintf("ytsearch%d:%s", maxResults, query),
		"--flat-playlist",
		"--no-playlist",
		"-j",
	}

	cmd := exec.CommandContext(ctx, Executable, args...)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("yt-dlp search failed: %w", err)
	}

	var results []SearchResult
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if line == "" {
			continue
		}
		var entry ytDlpEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		if entry.Title == "" {
			continue
		}
		display := entry.Title
		if len(display) > 95 {
			display = display[:92] + "..."
		}
		results = append(results, SearchResult{
			Display: display,
			URL:     "https://youtu.be/" + entry.ID,
		})
	}

	return results, nil
}
