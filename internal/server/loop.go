package server

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/realmgo/server/internal/config"
	"github.com/realmgo/server/internal/game"
)

// Run drives every registered instance at the fixed tick rate until ctx
// is cancelled. dt is the real measured elapsed time, so an overrun
// tick simulates the full interval instead of dropping time. On
// shutdown every resident character is saved.
func (srv *Server) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / config.TickRate)
	defer ticker.Stop()

	last := time.Now()
	autosaveAt := last.Add(srv.cfg.Server.AutosaveEvery)
	srv.log.Info("game loop started", zap.Int("tick_rate", config.TickRate))

	for {
		select {
		case <-ctx.Done():
			srv.log.Info("game loop stopping")
			srv.saveAll()
			return nil
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			srv.tick++
			for _, inst := range srv.instanceList() {
				inst.Update(dt, srv.tick, now)
			}
			if now.After(autosaveAt) {
				srv.autosave()
				autosaveAt = now.Add(srv.cfg.Server.AutosaveEvery)
			}
		}
	}
}

// instanceList snapshots the instance set so registration during a tick
// never invalidates the iteration.
func (srv *Server) instanceList() []*game.Instance {
	srv.mu.RLock()
	defer srv.mu.RUnlock()
	out := make([]*game.Instance, 0, len(srv.instances))
	for _, inst := range srv.instances {
		out = append(out, inst)
	}
	return out
}

// autosave persists every dirty resident character. Runs on the loop
// goroutine between ticks, so player state is quiescent.
func (srv *Server) autosave() {
	saved := 0
	for _, inst := range srv.instanceList() {
		for _, p := range inst.Players {
			if !p.Dirty {
				continue
			}
			if err := srv.savePlayer(p); err != nil {
				srv.log.Error("autosave", zap.Int64("character", p.CharacterID), zap.Error(err))
				continue
			}
			saved++
		}
	}
	if saved > 0 {
		srv.log.Debug("autosave complete", zap.Int("characters", saved))
	}
}

// saveAll persists every resident character regardless of dirty state.
func (srv *Server) saveAll() {
	for _, inst := range srv.instanceList() {
		for _, p := range inst.Players {
			if err := srv.savePlayer(p); err != nil {
				srv.log.Error("shutdown save", zap.Int64("character", p.CharacterID), zap.Error(err))
			}
		}
	}
	srv.log.Info("all resident characters saved")
}
