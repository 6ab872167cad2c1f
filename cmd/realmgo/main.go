package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/realmgo/server/internal/config"
	"github.com/realmgo/server/internal/data"
	"github.com/realmgo/server/internal/handler"
	"github.com/realmgo/server/internal/net"
	"github.com/realmgo/server/internal/persist"
	"github.com/realmgo/server/internal/scripting"
	"github.com/realmgo/server/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := os.Getenv("REALMGO_CONFIG")
	if cfgPath == "" {
		cfgPath = "realmgo.toml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer log.Sync()
	log.Info("starting", zap.String("server", cfg.Server.Name))

	db, err := persist.Open(cfg.Database.Path, log)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return err
	}

	tables, err := data.LoadTables("data/yaml")
	if err != nil {
		return err
	}
	log.Info("content tables loaded",
		zap.Int("classes", tables.Classes.Count()),
		zap.Int("items", tables.Items.Count()),
		zap.Int("enemies", tables.Enemies.Count()),
		zap.Int("dungeons", tables.Dungeons.Count()))

	scripts, err := scripting.NewEngine("scripts/combat.lua", log)
	if err != nil {
		return err
	}
	defer scripts.Close()

	admins, err := handler.NewAllowlist(cfg.Admin.AllowlistPath, log)
	if err != nil {
		return err
	}
	defer admins.Close()

	world := server.New(cfg, tables, scripts,
		persist.NewCharacterRepo(db), persist.NewVaultRepo(db), log)

	deps := &handler.Deps{
		Cfg:        cfg,
		Log:        log,
		Tables:     tables,
		Accounts:   persist.NewAccountRepo(db),
		Sessions:   persist.NewSessionRepo(db),
		Characters: persist.NewCharacterRepo(db),
		Vaults:     persist.NewVaultRepo(db),
		Admins:     admins,
		World:      world,
	}
	registry := handler.NewRegistry(deps)
	handler.RegisterAll(registry)

	ws := net.NewServer(cfg, registry, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return world.Run(ctx)
	})
	g.Go(func() error {
		return ws.ListenAndServe()
	})
	g.Go(func() error {
		<-ctx.Done()
		return ws.Shutdown(context.Background())
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("shutdown complete")
	return nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	var zcfg zap.Config
	if cfg.Format == "json" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}
