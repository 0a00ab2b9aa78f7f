package songleader

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RunTempoWatchdog polls once a second for a Tempo deadline overrun and
// auto-transitions to bingo mode when it fires. Each "!tempo" already
// received reduces the deadline by TempoDeadlineReduction, so a party
// with enough impatient singers can cut the wait to nothing.
func (s *Songleader) RunTempoWatchdog(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkTempoTimeout()
		}
	}
}

func (s *Songleader) checkTempoTimeout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Mode.Tag != ModeTempo {
		return
	}

	reduction := TempoDeadlineReduction * time.Duration(len(s.state.Mode.TempoNicks))
	timeout := s.state.Mode.TempoInitAt.Add(TempoDeadline - reduction)

	if time.Now().After(timeout) {
		s.log.Info("tempo timeout reached, auto-transitioning to bingo mode",
			zap.Duration("elapsed", time.Since(s.state.Mode.TempoInitAt)),
			zap.Int("tempos", len(s.state.Mode.TempoNicks)))
		s.enterBingoMode()
	}
}
