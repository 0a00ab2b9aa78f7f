package songbook

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPage = `<!DOCTYPE html>
<html><body>
<h1>  Helan går  </h1>
<div class="SongTags__Wrapper-abc123">
  <span>tag</span>
  <span> TF:s Sångbok 150 </span>
</div>
</body></html>`

func TestFetchScrapesTitleAndBook(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(testPage))
	}))
	defer srv.Close()

	re := regexp.MustCompile(`^(https?://[^/]+)/(.+)$`)
	song, err := Fetch(srv.URL+"/helan-gar", re, "alice")
	require.NoError(t, err)

	assert.Equal(t, "helan-gar", song.ID)
	assert.Equal(t, "Helan går", song.Title)
	assert.Equal(t, "TF:s Sångbok 150", song.Book)
	assert.Equal(t, "alice", song.QueuedBy)
}

func TestFetchRejectsURLNotMatchingRegex(t *testing.T) {
	re := regexp.MustCompile(`^(https?://only-this-host\.example)/(.+)$`)
	_, err := Fetch("https://not-the-right-host.example/song", re, "alice")
	assert.Error(t, err)
}

func TestFetchPropagatesHTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	re := regexp.MustCompile(`^(https?://[^/]+)/(.+)$`)
	_, err := Fetch(srv.URL+"/missing", re, "alice")
	assert.Error(t, err)
}

func TestSongStringFallsBackToIDWithoutTitle(t *testing.T) {
	song := Song{ID: "song-id"}
	assert.Equal(t, "song-id", song.String())
}

func TestSongStringOmitsBookWhenEmpty(t *testing.T) {
	song := Song{ID: "song-id", Title: "A Song"}
	assert.Equal(t, "A Song", song.String())
}

func TestSongEqualComparesByIDOnly(t *testing.T) {
	a := Song{ID: "x", Title: "A"}
	b := Song{ID: "x", Title: "Different title"}
	c := Song{ID: "y", Title: "A"}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}
