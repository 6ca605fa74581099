package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/input"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/recognizer"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tray"
)

func main() {
	configPath := flag.String("config", "", "path to a JSON config file")
	cameraID := flag.Int("camera", 0, "camera device id")
	addr := flag.String("addr", "", "HTTP listen address")
	dataDir := flag.String("data", "", "data directory for the database and plugins")
	logLevel := flag.String("log-level", "", "log level (trace, debug, info, warn, error)")
	noTray := flag.Bool("no-tray", false, "run without the system tray")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if set["data"] {
		cfg.DataDir = *dataDir
		cfg.PluginDir = filepath.Join(*dataDir, "plugins")
	}

	st, err := store.New(filepath.Join(cfg.DataDir, "mudra.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize store")
	}
	defer st.Close()

	// Tunables saved through the settings API override the config file.
	if err := st.Settings().GetJSON(store.SettingTunables, &cfg.Tunables); err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Warn().Err(err).Msg("ignoring unreadable stored settings")
	}

	if set["camera"] {
		cfg.CameraID = *cameraID
	}
	if set["addr"] {
		cfg.Addr = *addr
	}
	if set["log-level"] {
		cfg.LogLevel = *logLevel
	}
	if *noTray {
		cfg.Tray = false
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Str("level", cfg.LogLevel).Msg("invalid log level")
	}
	zerolog.SetGlobalLevel(level)

	cfg.FillScreen(input.ScreenSize())
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	seeded, err := st.Bindings().Seed(cfg.SeedBindings())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to seed bindings")
	}
	if seeded {
		log.Info().Msg("seeded default action map")
	}

	det, err := recognizer.NewMediaPipeDetector(cfg.Detector)
	if err != nil {
		log.Fatal().Err(err).Msg("gesture recognizer unavailable")
	}

	plugins := plugin.NewManager(cfg.PluginDir)
	if err := plugins.Discover(); err != nil {
		log.Warn().Err(err).Str("dir", cfg.PluginDir).Msg("plugin discovery failed")
	}
	log.Info().Int("plugins", len(plugins.List())).Msg("plugins discovered")

	hub := server.NewStateHub()
	preview := server.NewPreview()

	observers := []app.Observer{hub}
	var tr *tray.Tray
	if cfg.Tray {
		tr = tray.New(true)
		observers = append(observers, tr)
	}

	opts := capture.DefaultOptions()
	opts.DeviceID = cfg.CameraID
	opts.Mirror = cfg.Mirror

	a, err := app.New(cfg, app.Deps{
		Camera:    capture.NewCamera(opts),
		Detector:  det,
		Injector:  input.NewRobotInjector(),
		Plugins:   plugin.NewRunner(plugins, plugin.NewExecutor(cfg.PluginTimeout.Std())),
		Store:     st,
		Preview:   preview,
		Observers: observers,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build engine")
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start capture")
	}

	webDir := findWebDir(cfg)
	if webDir != "" {
		log.Info().Str("dir", webDir).Msg("serving static files")
	}

	srv := server.New(server.Config{
		StaticDir:  webDir,
		Store:      st,
		Controller: a,
		Hub:        hub,
		Preview:    preview,
	})
	go func() {
		if err := srv.ListenAndServe(cfg.Addr); err != nil {
			log.Error().Err(err).Msg("server failed")
			stop()
		}
	}()

	if tr != nil {
		tr.SetEnabled(a.Enabled())
		tr.OnToggle(func(enabled bool) {
			a.SetEnabled(enabled)
			if err := st.Settings().Set(store.SettingEnabled, strconv.FormatBool(enabled)); err != nil {
				log.Warn().Err(err).Msg("failed to persist enabled flag")
			}
		})
		tr.OnSettings(func() { openBrowser("http://" + cfg.Addr) })
		tr.OnQuit(stop)

		go func() {
			<-ctx.Done()
			tr.Quit()
		}()
		// The tray needs the main goroutine on macOS.
		tr.Run()
	} else {
		<-ctx.Done()
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("server shutdown")
	}
}

// findWebDir returns the configured web directory or the first existing one
// among "web", "../web" and <data>/web. Returns "" if none is found.
func findWebDir(cfg config.Config) string {
	candidates := []string{cfg.WebDir, "web", "../web", filepath.Join(cfg.DataDir, "web")}
	for _, p := range candidates {
		if p == "" {
			continue
		}
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Warn().Err(err).Str("url", url).Msg("failed to open browser")
	}
}
