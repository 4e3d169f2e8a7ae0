package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Reaper is the periodic safety net behind RemoveIfEmpty: rooms that
// somehow ended up empty without the immediate sweep firing are deleted
// once they age past the retention window.
type Reaper struct {
	Rooms     *RoomManager
	Interval  time.Duration
	Retention time.Duration
}

func NewReaper(rooms *RoomManager, interval, retention time.Duration) *Reaper {
	return &Reaper{Rooms: rooms, Interval: interval, Retention: retention}
}

func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "app.reaper").Msg("reaper stopped")
			return
		case now := <-ticker.C:
			if reaped := r.Rooms.Sweep(now, r.Retention); reaped > 0 {
				log.Info().Str("module", "app.reaper").Int("reaped", reaped).Msg("periodic sweep")
			}
		}
	}
}
