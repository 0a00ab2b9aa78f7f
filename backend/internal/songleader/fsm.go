package songleader

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"sitzbot/backend/internal/bus"
	"sitzbot/backend/internal/songbook"
	"sitzbot/backend/internal/statefile"
	"sitzbot/backend/pkg/config"
)

const helpText = `
===================================================================
Useful commands:
Add a YouTube URL to the music queue:     !p https://youtu.be/dQw4w9WgXcQ
Remove most recently queued music by you: !rm
Request a song you want to sing:          !request songbook-url
List current requests:                    !ls
To say stuff, use:                        !speak hello world
For help during the evening:              !help
And the most important - to sing a song:  !tempo
===================================================================`

// Songleader owns the party state machine: song queues, current mode,
// and every transition between them. One event is processed at a time
// under mu, matching the source's single RwLock-guarded actor.
type Songleader struct {
	bus  *bus.Bus
	log  *zap.Logger
	cfg  *config.Config
	path string

	mu    sync.Mutex
	state State
}

// New loads persisted state (or defaults) and returns a ready
// Songleader. Call Run to start processing bus events.
func New(b *bus.Bus, log *zap.Logger, cfg *config.Config, path string) *Songleader {
	state := defaultState()
	statefile.LoadOrDefault(path, &state, log)
	if state.Mode.Tag == "" {
		state.Mode = inactiveMode()
	}
	if state.Mode.Tag == ModeTempo {
		state.Mode.TempoInitAt = time.Now()
	}

	log.Debug("initial songleader state",
		zap.Int("first_songs", len(state.FirstSongs)),
		zap.Int("requests", len(state.Requests)),
		zap.Int("backup", len(state.Backup)),
		zap.String("mode", string(state.Mode.Tag)))

	return &Songleader{bus: b, log: log, cfg: cfg, path: path, state: state}
}

func (s *Songleader) persist() {
	if err := statefile.Save(s.path, &s.state); err != nil {
		s.log.Error("failed to persist songleader state", zap.Error(err))
	}
}

func (s *Songleader) setMode(mode Mode) {
	s.log.Info("mode transition", zap.String("from", string(s.state.Mode.Tag)), zap.String("to", string(mode.Tag)))
	s.state.Mode = mode
	s.persist()
}

func (s *Songleader) ttsSay(text string) {
	s.bus.Publish(bus.TextToSpeechEvent{Action: bus.TextToSpeechSpeak{Text: text, Prio: bus.PriorityHigh}})
}

func (s *Songleader) say(text string) {
	s.bus.Publish(bus.ChatEvent{Action: bus.ChatSend{Text: text, Source: bus.PlatformBot}})
}

func (s *Songleader) sayRich(text string, rich bus.RichContent) {
	s.bus.Publish(bus.ChatEvent{Action: bus.ChatSend{Text: text, Rich: rich, Source: bus.PlatformBot}})
}

func (s *Songleader) ttsAndSay(text string) {
	s.ttsSay(text)
	s.say(text)
}

func (s *Songleader) allowMusicPlayback(allow bool) {
	if allow {
		s.bus.Publish(bus.PlaybackEvent{Action: bus.PlaybackPlay{}})
	} else {
		s.bus.Publish(bus.PlaybackEvent{Action: bus.PlaybackPause{}})
	}
}

func (s *Songleader) allowLowPrioSpeech(allow bool) {
	if allow {
		s.bus.Publish(bus.TextToSpeechEvent{Action: bus.TextToSpeechAllowLowPrio{}})
	} else {
		s.bus.Publish(bus.TextToSpeechEvent{Action: bus.TextToSpeechDisallowLowPrio{}})
	}
}

func mkSongbookSong(songbookURL, title, id string, page int) songbook.Song {
	fullID := "tf-sangbok-150-" + id
	book := ""
	if page > 0 {
		book = fmt.Sprintf("TF:s Sångbok 150 – s. %d", page)
	}
	return songbook.Song{
		ID:    fullID,
		URL:   songbookURL + "/" + fullID,
		Title: title,
		Book:  book,
	}
}

// Begin runs the party's opening routine: it must be called from
// ModeInactive, sets ModeStarting (deliberately not persisted, so a
// restart mid-routine can begin again), sings the welcome chant and
// verse, and finally enters ModeSinging directly, skipping the chat
// announcements enterSingingMode would otherwise make.
func (s *Songleader) Begin(ctx context.Context) {
	s.mu.Lock()
	if s.state.Mode.Tag != ModeInactive {
		s.log.Warn("cannot begin when not inactive", zap.String("mode", string(s.state.Mode.Tag)))
		s.mu.Unlock()
		return
	}
	s.state.Mode = Mode{Tag: ModeStarting}
	s.allowMusicPlayback(false)
	s.allowLowPrioSpeech(false)

	songbookURL := s.cfg.Songbook.SongbookURL
	s.state.FirstSongs = []songbook.Song{
		mkSongbookSong(songbookURL, "Halvankaren", "halvankaren", 39),
		mkSongbookSong(songbookURL, "Fjärran han dröjer", "fjarran-han-drojer", 45),
	}
	s.state.Requests = nil
	s.state.Backup = []songbook.Song{
		mkSongbookSong(songbookURL, "Rattataa", "rattataa", 0),
		mkSongbookSong(songbookURL, "Nu är det nu", "nu-ar-det-nu", 125),
		mkSongbookSong(songbookURL, "Mera brännvin", "mera-brannvin", 83),
		mkSongbookSong(songbookURL, "Tycker du som jag", "tycker-du-som-jag", 79),
		mkSongbookSong(songbookURL, "Siffervisan", "siffervisan", 115),
		mkSongbookSong(songbookURL, "Vad i allsin dar?", "vad-i-allsin-dar", 54),
		mkSongbookSong(songbookURL, "Undulaten", "undulaten", 72),
	}
	s.mu.Unlock()

	s.ttsSay("Diii duuuu diii duuuu diii duuu")
	sleepCtx(ctx, 3*time.Second)

	welcomeHelp := strings.ReplaceAll(helpText, "songbook-url", songbookURL+"/tf-sangbok-150-teknologvisan")
	welcomeText := fmt.Sprintf(`sitzbot
===================================================================
Hi and welcome to this party. I will be your host today.
%s
Have fun, and don't drown in the shower!
===================================================================`, welcomeHelp)

	for _, line := range strings.Split(welcomeText, "\n") {
		s.say(line)
		sleepCtx(ctx, AntiFloodDelay)
	}

	sleepCtx(ctx, 3*time.Second)
	s.say("*sjunger:*")

	s.ttsAndSay("En liten fågel satt en gång, och sjöng i furuskog.")
	sleepCtx(ctx, 4*time.Second)
	s.ttsAndSay("Han hade sjungit dagen lång, men dock ej sjungit nog.")
	sleepCtx(ctx, 4*time.Second)
	s.ttsAndSay("Vad sjöng den lilla fågeln då? JO!")
	sleepCtx(ctx, 3*time.Second)

	s.say("Helan går...")
	s.ttsSay("Helan går")

	s.mu.Lock()
	s.setMode(singingMode())
	s.mu.Unlock()
}

func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

func (s *Songleader) enterInactiveMode() {
	s.setMode(inactiveMode())
	s.allowMusicPlayback(true)
	s.allowLowPrioSpeech(true)
}

func (s *Songleader) enterTempoMode() {
	s.setMode(tempoMode())
	s.allowMusicPlayback(true)
	s.allowLowPrioSpeech(true)
}

func (s *Songleader) enterBingoMode() {
	s.log.Info("entering bingo mode", zap.Int("requests", len(s.state.Requests)), zap.Int("backup", len(s.state.Backup)))

	song, ok := s.state.PopNextSong()
	if !ok {
		s.log.Info("no songs available in queue")
		s.say("No songs found :(, add more songs: !request <url>")
		s.enterTempoMode()
		return
	}

	s.log.Info("selected next song", zap.String("song", song.String()))
	s.setMode(bingoMode(song))
	s.allowMusicPlayback(false)

	s.ttsSay(fmt.Sprintf("Nästa sång kommer nu... %s", song.String()))

	text := fmt.Sprintf("Next song coming up: %s", song.String())
	if song.URL != "" {
		text = fmt.Sprintf("Next song coming up: %s. %s", song.String(), song.URL)
	}
	s.sayRich(text+"\nType bingo when you have found it!", bus.RichBingoAnnouncement{Song: song})
}

func (s *Songleader) enterSingingMode(ctx context.Context) {
	s.setMode(singingMode())
	s.allowLowPrioSpeech(false)

	s.ttsSay("PLING PLONG")
	s.sayRich("Song starts in 3", bus.RichCountdown{Value: bus.CountdownThree})
	sleepCtx(ctx, time.Second)
	s.sayRich("2", bus.RichCountdown{Value: bus.CountdownTwo})
	sleepCtx(ctx, time.Second)
	s.sayRich("1", bus.RichCountdown{Value: bus.CountdownOne})
	sleepCtx(ctx, time.Second)
	s.sayRich("NOW!", bus.RichCountdown{Value: bus.CountdownNow})
}

// End terminates the party; no-op when already inactive.
func (s *Songleader) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Mode.Tag == ModeInactive {
		s.log.Warn("cannot end when already inactive")
		return
	}
	s.say("Party is over. go drunk, you are home....")
	s.enterInactiveMode()
}
