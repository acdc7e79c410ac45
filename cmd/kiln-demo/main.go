// Command kiln-demo runs a small ebiten scene: an animated sprite row, particle
// torches and crates dropped with the mouse onto a chipmunk floor. The scene file
// is reloaded when it changes and F1 toggles the debug overlay.
package main

import (
	"errors"
	"flag"
	"io/fs"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/plus3/kiln/config"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "kiln.toml", "Path to the TOML config. Defaults are used when the file does not exist.")
	assetsDir := flag.String("assets", "assets", "Directory textures not generated by the demo are loaded from.")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}

	ebiten.SetWindowTitle(cfg.Window.Title)
	ebiten.SetWindowSize(cfg.Window.Width, cfg.Window.Height)
	ebiten.SetVsyncEnabled(cfg.Window.VSync)
	ebiten.SetTPS(cfg.Loop.TickRate)

	game, err := newGame(cfg, logger, os.DirFS(*assetsDir))
	if err != nil {
		logger.Fatal("failed to start", zap.Error(err))
	}

	err = ebiten.RunGame(game)
	game.Close()
	if err != nil {
		logger.Error("game stopped", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return config.Defaults(), nil
	}
	return cfg, err
}
