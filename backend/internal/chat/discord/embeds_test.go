package discord

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitzbot/backend/internal/bus"
	"sitzbot/backend/internal/playbacktypes"
	"sitzbot/backend/internal/songbook"
)

func TestBuildEmbedReturnsNilForPlainText(t *testing.T) {
	embed := buildEmbed("just some text", nil)
	assert.Nil(t, embed)
}

func TestBuildEmbedRendersSongEnqueued(t *testing.T) {
	embed := buildEmbed("", bus.RichSongEnqueued{
		Song:                  playbacktypes.Song{Title: "Never Gonna Give You Up", URL: "https://youtu.be/x"},
		TimeUntilPlaybackMins: 3,
	})
	require.NotNil(t, embed)
	assert.Contains(t, embed.Description, "Never Gonna Give You Up")
	assert.Equal(t, colorSuccess, embed.Color)
}

func TestBuildEmbedRendersEmptySongRequestList(t *testing.T) {
	embed := buildEmbed("", bus.RichSongRequestList{})
	require.NotNil(t, embed)
	assert.Contains(t, embed.Description, "No requested songs")
}

func TestBuildEmbedRendersSongRequestList(t *testing.T) {
	embed := buildEmbed("", bus.RichSongRequestList{Songs: []songbook.Song{
		{ID: "a", Title: "Song A"},
		{ID: "b", Title: "Song B"},
	}})
	require.NotNil(t, embed)
	assert.Contains(t, embed.Description, "Song A")
	assert.Contains(t, embed.Description, "Song B")
}

func TestBuildEmbedRendersCountdown(t *testing.T) {
	embed := buildEmbed("", bus.RichCountdown{Value: bus.CountdownNow})
	require.NotNil(t, embed)
	assert.Equal(t, "NOW!", embed.Title)
}
