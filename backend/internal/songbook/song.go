// Package songbook fetches and scrapes song metadata from the external
// songbook site, and defines the Song type shared by the songleader and
// chat adapters.
package songbook

import "fmt"

// Song is a single songbook entry, identified by the id captured out of
// a pasted songbook URL. Two Songs are equal iff their IDs are equal;
// title and book are best-effort scrape results and may be empty.
type Song struct {
	ID       string `json:"id"`
	URL      string `json:"url,omitempty"`
	Title    string `json:"title,omitempty"`
	Book     string `json:"book,omitempty"`
	QueuedBy string `json:"queued_by,omitempty"`
}

// String renders "Title (Book)", falling back to the id when the title
// wasn't found, and omitting the book when it wasn't found.
func (s Song) String() string {
	title := s.Title
	if title == "" {
		title = s.ID
	}
	if s.Book != "" {
		return fmt.Sprintf("%s (%s)", title, s.Book)
	}
	return title
}

// Equal compares songs by id only, matching the source's PartialEq.
func (s Song) Equal(other Song) bool {
	return s.ID == other.ID
}
