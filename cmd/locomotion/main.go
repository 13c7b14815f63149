package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
	"github.com/oomph-ac/locomotion/settings"
	"github.com/oomph-ac/locomotion/worker"
)

// The following program plays a scenario with predicted clients and an authoritative server connected by a
// lossy link, and prints how far every client ended up from the server.
func main() {
	os.Exit(run())
}

// run runs the program and returns its exit code. Deferred cleanup runs before the code is returned.
func run() int {
	if len(os.Args) < 2 {
		fmt.Println("Usage: ./locomotion <settings.toml> [scenario.yaml]")
		return 0
	}

	level := slog.LevelInfo
	if os.Getenv("LOCOMOTION_DEBUG") != "" {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	s, err := readSettings(os.Args[1])
	if err != nil {
		log.Error("failed loading settings", "err", err)
		return 1
	}
	var scenarioPath string
	if len(os.Args) > 2 {
		scenarioPath = os.Args[2]
	}
	sc, err := LoadScenario(scenarioPath)
	if err != nil {
		log.Error("failed loading scenario", "err", err)
		return 1
	}

	if addr := os.Getenv("STATSVIEW_ADDR"); addr != "" {
		// set configurations before calling `statsview.New()` method
		viewer.SetConfiguration(viewer.WithTheme(viewer.ThemeWesteros), viewer.WithAddr(addr))

		mgr := statsview.New()
		go mgr.Start()
		defer mgr.Stop()
	}

	pool := worker.New(0, log)
	defer pool.Close()

	results, err := Run(sc, s, pool, log)
	if err != nil {
		log.Error("scenario failed", "err", err)
		return 1
	}
	for _, r := range results {
		fmt.Println(r)
	}
	return 0
}

// readSettings loads the settings at path, writing the default settings there first if the file does not exist.
func readSettings(path string) (settings.Settings, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := settings.SaveDefault(path); err != nil {
			return settings.Settings{}, err
		}
	}
	return settings.Load(path)
}
