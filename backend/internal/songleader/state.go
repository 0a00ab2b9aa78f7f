// Package songleader runs the singalong state machine: it walks the
// party through starting, waiting for everyone to call tempo, picking
// the next song, waiting for bingo, and singing, looping until someone
// ends the party.
package songleader

import (
	"fmt"
	"math/rand"
	"time"

	"sitzbot/backend/internal/songbook"
)

// StateFile is the default persisted-state path.
const StateFile = "songleader_state.json"

const (
	NumTempoNicks          = 3
	NumBingoNicks          = 3
	AntiFloodDelay         = 1200 * time.Millisecond
	TempoDeadline          = 420 * time.Second
	TempoDeadlineReduction = 60 * time.Second
)

// ModeTag discriminates the variants of Mode, since Go has no
// enum-with-payload the way Rust does. It is persisted as the "tag"
// field of Mode's JSON object (e.g. {"tag":"tempo","tempo_nicks":{...}}),
// not as an externally-tagged variant.
type ModeTag string

const (
	ModeInactive ModeTag = "inactive"
	ModeStarting ModeTag = "starting"
	ModeTempo    ModeTag = "tempo"
	ModeBingo    ModeTag = "bingo"
	ModeSinging  ModeTag = "singing"
)

// Mode is the current phase of the party. Only one of the Tempo/Bingo
// payload fields is meaningful at a time, selected by Tag.
type Mode struct {
	Tag ModeTag `json:"tag"`

	// TempoNicks holds who has called !tempo, valid when Tag == ModeTempo.
	TempoNicks map[string]struct{} `json:"tempo_nicks,omitempty"`
	// TempoInitAt is excluded from persistence (reset to "now" on load),
	// matching the source's #[serde(skip, default = "Instant::now")].
	TempoInitAt time.Time `json:"-"`

	// BingoNicks holds who has called !bingo, valid when Tag == ModeBingo.
	BingoNicks map[string]struct{} `json:"bingo_nicks,omitempty"`
	// BingoSong is the song about to be sung, valid when Tag == ModeBingo.
	BingoSong songbook.Song `json:"bingo_song,omitempty"`
}

func inactiveMode() Mode { return Mode{Tag: ModeInactive} }

func tempoMode() Mode {
	return Mode{Tag: ModeTempo, TempoNicks: map[string]struct{}{}, TempoInitAt: time.Now()}
}

func bingoMode(song songbook.Song) Mode {
	return Mode{Tag: ModeBingo, BingoNicks: map[string]struct{}{}, BingoSong: song}
}

func singingMode() Mode { return Mode{Tag: ModeSinging} }

// State is the persisted snapshot of the songleader's song queues and
// current mode.
type State struct {
	FirstSongs []songbook.Song `json:"first_songs"`
	Requests   []songbook.Song `json:"requests"`
	Backup     []songbook.Song `json:"backup"`
	Mode       Mode            `json:"mode"`
}

func defaultState() State {
	return State{Mode: inactiveMode()}
}

// GetSongs concatenates first_songs, requests and backup in priority
// order, for the !ls listing.
func (s *State) GetSongs() []songbook.Song {
	songs := make([]songbook.Song, 0, len(s.FirstSongs)+len(s.Requests)+len(s.Backup))
	songs = append(songs, s.FirstSongs...)
	songs = append(songs, s.Requests...)
	songs = append(songs, s.Backup...)
	return songs
}

// AddRequest appends song to requests unless it's a duplicate. A song
// already sitting in backup is promoted to requests instead of being
// rejected, matching the source's add_request.
func (s *State) AddRequest(song songbook.Song) (songbook.Song, error) {
	for _, existing := range s.GetSongs() {
		if existing.Equal(song) {
			for i, b := range s.Backup {
				if b.Equal(song) {
					s.Backup = append(s.Backup[:i], s.Backup[i+1:]...)
					s.Requests = append(s.Requests, song)
					return song, nil
				}
			}
			return songbook.Song{}, fmt.Errorf("song already requested")
		}
	}

	s.Requests = append(s.Requests, song)
	return song, nil
}

// RmSongByID removes and returns the first request matching id.
func (s *State) RmSongByID(id string) (songbook.Song, error) {
	for i, song := range s.Requests {
		if song.ID == id {
			s.Requests = append(s.Requests[:i], s.Requests[i+1:]...)
			return song, nil
		}
	}
	return songbook.Song{}, fmt.Errorf("song not found by id %s", id)
}

// RmSongByNick removes and returns the most recently added request
// queued by nick.
func (s *State) RmSongByNick(nick string) (songbook.Song, error) {
	for i := len(s.Requests) - 1; i >= 0; i-- {
		if s.Requests[i].QueuedBy == nick {
			song := s.Requests[i]
			s.Requests = append(s.Requests[:i], s.Requests[i+1:]...)
			return song, nil
		}
	}
	return songbook.Song{}, fmt.Errorf("no song requests found by %s", nick)
}

// PopNextSong selects the next song to sing: first_songs take strict
// priority in order, then a uniformly random request, then a uniformly
// random backup song, in that order of preference.
func (s *State) PopNextSong() (songbook.Song, bool) {
	if len(s.FirstSongs) > 0 {
		song := s.FirstSongs[0]
		s.FirstSongs = s.FirstSongs[1:]
		return song, true
	}

	if len(s.Requests) > 0 {
		i := rand.Intn(len(s.Requests))
		song := s.Requests[i]
		s.Requests = append(s.Requests[:i], s.Requests[i+1:]...)
		return song, true
	}

	if len(s.Backup) > 0 {
		i := rand.Intn(len(s.Backup))
		song := s.Backup[i]
		s.Backup = append(s.Backup[:i], s.Backup[i+1:]...)
		return song, true
	}

	return songbook.Song{}, false
}
