package songbook

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Fetch requests url, scrapes its title and book tag, and returns a Song
// whose id is the second capture group of re matched against url.
// Matches the source's get_song_info: title from the page's "h1", book
// from the last child of the tag element whose class starts with
// "SongTags__Wrapper".
func Fetch(url string, re *regexp.Regexp, queuedBy string) (Song, error) {
	matches := re.FindStringSubmatch(url)
	if matches == nil || len(matches) < 3 {
		return Song{}, fmt.Errorf("URL mismatch, try pasting a songbook URL")
	}
	id := matches[2]

	resp, err := http.Get(url)
	if err != nil {
		return Song{}, fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return Song{}, fmt.Errorf("request to %s failed with status %s", url, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return Song{}, fmt.Errorf("parsing songbook page %s: %w", url, err)
	}

	title := strings.TrimSpace(doc.Find("h1").First().Text())

	var book string
	doc.Find("[class^=SongTags__Wrapper]").First().Children().Last().Each(func(_ int, s *goquery.Selection) {
		book = strings.TrimSpace(s.Text())
	})

	return Song{
		ID:       id,
		URL:      url,
		Title:    title,
		Book:     book,
		QueuedBy: queuedBy,
	}, nil
}
