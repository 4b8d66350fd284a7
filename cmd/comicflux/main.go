package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"comicflux/internal/config"
	"comicflux/internal/viewer"
)

const windowTitle = "ComicFLUX"

var debugMode bool

// debugLog prints only when -debug is given
func debugLog(format string, args ...interface{}) {
	if debugMode {
		log.Printf("DEBUG: "+format, args...)
	}
}

func main() {
	configPath := flag.String("config", config.Path(), "path to the settings file")
	listOnly := flag.Bool("list", false, "print the pages of the archive and exit")
	flag.BoolVar(&debugMode, "debug", false, "enable debug logging")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-config path] [-debug] [-list] [archive]\n", os.Args[0])
		fmt.Fprintln(flag.CommandLine.Output(), "Without an archive the window waits for one to be dropped on it.")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() > 1 || (*listOnly && flag.NArg() == 0) {
		flag.Usage()
		os.Exit(2)
	}
	archivePath := flag.Arg(0)

	result := config.LoadFromPath(*configPath)
	for _, warning := range result.Warnings {
		log.Printf("Warning: %s", warning)
	}
	cfg := result.Config
	debugLog("Config %s: %s (sort: %s, cache: %d)", *configPath, result.Status,
		config.GetSortMethodName(cfg.SortMethod), cfg.CacheSize)

	controller := viewer.NewController(cfg.ArchiveOptions(), cfg.CacheSize)
	if archivePath != "" {
		if err := controller.Open(archivePath); err != nil {
			log.Fatalf("Error: %v", err)
		}
	}

	if *listOnly {
		_, err := newPageLister(os.Stdout).Print(controller.Navigator())
		if closeErr := controller.Close(); closeErr != nil {
			log.Printf("Error: Failed to clean up: %v", closeErr)
		}
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
		return
	}

	if err := run(controller, cfg, *configPath); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

// run shows the window until it is closed, then saves the window size and
// removes the scratch directory
func run(controller *viewer.Controller, cfg config.Config, configPath string) error {
	if err := InitGraphics(); err != nil {
		log.Printf("Warning: Failed to load font, text overlays disabled: %v", err)
	}

	g := NewGame(controller, cfg, configPath)

	ebiten.SetWindowTitle(windowTitle)
	ebiten.SetWindowSize(cfg.WindowWidth, cfg.WindowHeight)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowClosingHandled(true)
	ebiten.SetScreenClearedEveryFrame(false)
	if cfg.Fullscreen {
		g.savedWinW, g.savedWinH = cfg.WindowWidth, cfg.WindowHeight
		ebiten.SetFullscreen(true)
	}

	runErr := ebiten.RunGame(g)

	g.saveCurrentWindowSize()
	if err := controller.Close(); err != nil {
		log.Printf("Error: Failed to clean up: %v", err)
	}
	return runErr
}
