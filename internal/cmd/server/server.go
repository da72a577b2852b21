// Package server parses server flags and runs the game process.
package server

import (
	"context"
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"log"
	mrand "math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/everforgeworks/gangwars/internal/api"
	"github.com/everforgeworks/gangwars/internal/config"
	"github.com/everforgeworks/gangwars/internal/game"
	"github.com/everforgeworks/gangwars/internal/save"
	"github.com/everforgeworks/gangwars/internal/storage/sqlite"
)

const shutdownTimeout = 5 * time.Second

// Config holds server command configuration.
type Config struct {
	Port        int           `env:"GANGWARS_PORT" envDefault:"8081"`
	DBPath      string        `env:"GANGWARS_DB_PATH" envDefault:"gangwars.db"`
	ContentPath string        `env:"GANGWARS_CONTENT_PATH"`
	Tick        time.Duration `env:"GANGWARS_TICK" envDefault:"250ms"`
	Autosave    time.Duration `env:"GANGWARS_AUTOSAVE" envDefault:"30s"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "HTTP listen port")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite save file; empty keeps saves in memory")
	fs.StringVar(&cfg.ContentPath, "content", cfg.ContentPath, "Content YAML file; empty uses the built-in content")
	fs.DurationVar(&cfg.Tick, "tick", cfg.Tick, "Scheduler resolution")
	fs.DurationVar(&cfg.Autosave, "autosave", cfg.Autosave, "Autosave interval")
	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("parse flags: %w", err)
	}
	if cfg.Tick <= 0 {
		return Config{}, fmt.Errorf("tick must be positive")
	}
	return cfg, nil
}

// loadContent reads the content file, or the built-in content when no path
// is set, and applies process overrides.
func loadContent(cfg Config) (*game.Content, error) {
	var (
		c   *game.Content
		err error
	)
	if strings.TrimSpace(cfg.ContentPath) == "" {
		c, err = game.DefaultContent()
	} else {
		c, err = game.LoadContent(cfg.ContentPath)
	}
	if err != nil {
		return nil, err
	}
	if cfg.Autosave > 0 {
		c.Balance.AutosaveMS = cfg.Autosave.Milliseconds()
	}
	return c, nil
}

// openKV returns the durable store and its closer.
func openKV(cfg Config) (save.KV, func() error, error) {
	if strings.TrimSpace(cfg.DBPath) == "" {
		log.Println("Save: no database path, saves live in memory")
		return save.NewMemoryKV(), func() error { return nil }, nil
	}
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}

func seededRand() (*mrand.Rand, error) {
	var seed [32]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return nil, fmt.Errorf("seed rng: %w", err)
	}
	return mrand.New(mrand.NewChaCha8(seed)), nil
}

// Run loads the save, starts the engine, the hub and the HTTP server, and
// blocks until ctx is done. The game is saved once more on the way out.
func Run(ctx context.Context, cfg Config) error {
	// 1. Content
	content, err := loadContent(cfg)
	if err != nil {
		return fmt.Errorf("load content: %w", err)
	}

	// 2. Storage and the last save
	kv, closeKV, err := openKV(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeKV(); err != nil {
			log.Printf("Save: close storage: %v", err)
		}
	}()
	saves := save.NewManager(kv)

	rng, err := seededRand()
	if err != nil {
		return err
	}
	opts := []game.Option{game.WithRand(rng), game.WithSaver(saves)}
	st, found, err := saves.Load(ctx)
	if err != nil {
		log.Printf("Save: %v, starting a new game", err)
	}
	if found {
		log.Printf("Save: resuming %s with %d eddies", st.GangName, st.Eddies)
		opts = append(opts, game.WithState(st))
	}

	// 3. Engine and the real-time hub
	engine := game.NewEngine(content, opts...)
	hub := api.NewHub()
	api.Relay(engine, hub)

	handler := api.NewHandler(engine, saves, hub)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           api.CORS(handler.Routes()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error { return engine.Run(gctx, cfg.Tick) })
	g.Go(func() error { return serve(gctx, httpServer) })
	g.Go(func() error { return reloadOnHangup(gctx, cfg, engine) })

	log.Printf("GANGWARS: Server live on %s", httpServer.Addr)
	log.Printf("Real-time Hub: Online")

	err = g.Wait()

	// 4. Save on the way out
	if saveErr := engine.SaveNow(context.Background()); saveErr != nil {
		log.Printf("Save: final save: %v", saveErr)
	} else {
		log.Println("Save: final save written")
	}
	return err
}

// serve runs the HTTP server until ctx ends.
func serve(ctx context.Context, srv *http.Server) error {
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		err := srv.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// reloadOnHangup swaps in fresh content on SIGHUP without a restart. A bad
// file is logged and the running content is kept.
func reloadOnHangup(ctx context.Context, cfg Config, engine *game.Engine) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sigChan:
			log.Println("SIGNAL: Reloading content...")
			c, err := loadContent(cfg)
			if err != nil {
				log.Printf("SIGNAL: reload failed, keeping current content: %v", err)
				continue
			}
			engine.ReloadContent(c)
		}
	}
}
