package songleader

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"sitzbot/backend/internal/bus"
	"sitzbot/backend/internal/songbook"
)

// Run subscribes to the bus and dispatches SongleaderEvents until ctx
// is cancelled. Each event runs in its own goroutine, matching the
// source's per-event tokio::spawn, serialized behind mu for state
// safety.
func (s *Songleader) Run(ctx context.Context) {
	sub := s.bus.Subscribe()
	defer s.bus.Unsubscribe(sub)

	for {
		ev, _, err := sub.Recv(ctx)
		if err != nil {
			return
		}

		songleaderEv, ok := ev.(bus.SongleaderEvent)
		if !ok {
			continue
		}

		go s.handle(ctx, songleaderEv.Action)
	}
}

func (s *Songleader) handle(ctx context.Context, action bus.SongleaderAction) {
	switch a := action.(type) {
	case bus.SongleaderRequestSongURL:
		s.handleRequestSongURL(a.URL, a.QueuedBy)
	case bus.SongleaderRequestSong:
		s.handleRequestSong(a.Song)
	case bus.SongleaderRmByID:
		s.handleRmByID(a.ID)
	case bus.SongleaderRmByNick:
		s.handleRmByNick(a.Nick)
	case bus.SongleaderTempo:
		s.handleTempo(a.Nick)
	case bus.SongleaderBingo:
		s.handleBingo(ctx, a.Nick)
	case bus.SongleaderSkal:
		s.handleSkal()
	case bus.SongleaderListSongs:
		s.handleListSongs()
	case bus.SongleaderForceTempo:
		s.mu.Lock()
		s.enterTempoMode()
		s.mu.Unlock()
	case bus.SongleaderForceBingo:
		s.mu.Lock()
		s.enterBingoMode()
		s.mu.Unlock()
	case bus.SongleaderForceSinging:
		s.mu.Lock()
		s.enterSingingMode(ctx)
		s.mu.Unlock()
	case bus.SongleaderPause:
		s.mu.Lock()
		s.enterInactiveMode()
		s.mu.Unlock()
	case bus.SongleaderEnd:
		s.End()
	case bus.SongleaderBegin:
		s.Begin(ctx)
	case bus.SongleaderHelp:
		s.handleHelp()
	}
}

func (s *Songleader) handleRequestSongURL(url, queuedBy string) {
	song, err := songbook.Fetch(url, s.cfg.Songbook.SongbookRe, queuedBy)
	if err != nil {
		s.log.Info("failed to fetch song info", zap.Error(err))
		s.say(fmt.Sprintf("Error while requesting song: %v", err))
		return
	}
	s.handleRequestSong(song)
}

func (s *Songleader) handleRequestSong(song songbook.Song) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added, err := s.state.AddRequest(song)
	if err != nil {
		s.log.Info("failed to add song request", zap.Error(err))
		s.say(fmt.Sprintf("Error while requesting song: %v", err))
		return
	}

	s.persist()
	s.log.Info("song request added", zap.String("song", added.String()))
	s.sayRich(fmt.Sprintf("Added %s to requests", added.String()), bus.RichSongRequestAdded{Song: added})
}

func (s *Songleader) handleRmByID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	song, err := s.state.RmSongByID(id)
	if err != nil {
		s.log.Info("failed to remove song by id", zap.String("id", id), zap.Error(err))
		s.say(fmt.Sprintf("Error while removing song: %v", err))
		return
	}
	s.persist()
	s.sayRich(fmt.Sprintf("Removed %s from requests", song.String()), bus.RichSongRemoved{Title: titleOrID(song)})
}

func (s *Songleader) handleRmByNick(nick string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	song, err := s.state.RmSongByNick(nick)
	if err != nil {
		s.log.Info("failed to remove song by nick", zap.String("nick", nick), zap.Error(err))
		s.say(fmt.Sprintf("Error while removing song: %v", err))
		return
	}
	s.persist()
	s.sayRich(fmt.Sprintf("Removed %s from requests", song.String()), bus.RichSongRemoved{Title: titleOrID(song)})
}

func titleOrID(song songbook.Song) string {
	if song.Title != "" {
		return song.Title
	}
	return song.ID
}

func (s *Songleader) handleTempo(nick string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Mode.Tag != ModeTempo {
		s.log.Info("ignoring tempo, not in tempo mode", zap.String("nick", nick), zap.String("mode", string(s.state.Mode.Tag)))
		return
	}

	_, alreadyIn := s.state.Mode.TempoNicks[nick]
	s.state.Mode.TempoNicks[nick] = struct{}{}

	if !alreadyIn {
		s.log.Info("got tempo", zap.String("nick", nick), zap.Int("count", len(s.state.Mode.TempoNicks)), zap.Int("required", NumTempoNicks))
	} else {
		s.log.Info("duplicate tempo, ignoring", zap.String("nick", nick))
	}

	if len(s.state.Mode.TempoNicks) >= NumTempoNicks {
		s.log.Info("tempo threshold reached, transitioning to bingo mode")
		s.enterBingoMode()
	} else {
		s.persist()
	}
}

func (s *Songleader) handleBingo(ctx context.Context, nick string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Mode.Tag != ModeBingo {
		s.log.Info("ignoring bingo, not in bingo mode", zap.String("nick", nick), zap.String("mode", string(s.state.Mode.Tag)))
		return
	}

	_, alreadyIn := s.state.Mode.BingoNicks[nick]
	s.state.Mode.BingoNicks[nick] = struct{}{}

	if !alreadyIn {
		s.log.Info("got bingo", zap.String("nick", nick), zap.Int("count", len(s.state.Mode.BingoNicks)), zap.Int("required", NumBingoNicks))
	} else {
		s.log.Info("duplicate bingo, ignoring", zap.String("nick", nick))
	}

	if len(s.state.Mode.BingoNicks) >= NumBingoNicks {
		s.log.Info("bingo threshold reached, transitioning to singing mode")
		s.enterSingingMode(ctx)
	} else {
		s.persist()
	}
}

func (s *Songleader) handleSkal() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Mode.Tag != ModeSinging {
		s.log.Info("ignoring skål, not in singing mode", zap.String("mode", string(s.state.Mode.Tag)))
		return
	}
	s.log.Info("received skål, song finished, transitioning to tempo mode")
	s.enterTempoMode()
}

func (s *Songleader) handleListSongs() {
	s.mu.Lock()
	songs := s.state.GetSongs()
	s.mu.Unlock()

	msg := "No requested songs found :("
	if len(songs) > 0 {
		titles := make([]string, 0, len(songs))
		for _, song := range songs {
			titles = append(titles, titleOrID(song))
		}
		msg = "Song requests: " + strings.Join(titles, ", ")
	}

	s.sayRich(msg, bus.RichSongRequestList{Songs: songs})
}

func (s *Songleader) handleHelp() {
	s.mu.Lock()
	mode := s.state.Mode.Tag
	s.mu.Unlock()

	if mode != ModeTempo && mode != ModeInactive {
		return
	}

	songbookURL := s.cfg.Songbook.SongbookURL
	text := strings.ReplaceAll(helpText, "songbook-url", songbookURL+"/tf-sangbok-150-teknologvisan")
	s.sayRich(text, bus.RichHelp{SongbookURL: songbookURL})
}
