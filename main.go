package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"

	"github.com/llehouerou/notebgm/internal/config"
	"github.com/llehouerou/notebgm/internal/document"
	"github.com/llehouerou/notebgm/internal/errmsg"
	"github.com/llehouerou/notebgm/internal/host"
	"github.com/llehouerou/notebgm/internal/mpris"
	"github.com/llehouerou/notebgm/internal/notify"
	"github.com/llehouerou/notebgm/internal/playback"
	"github.com/llehouerou/notebgm/internal/player"
	"github.com/llehouerou/notebgm/internal/source"
	"github.com/llehouerou/notebgm/internal/state"
	"github.com/llehouerou/notebgm/internal/stderr"
)

type options struct {
	configPath string
	vault      string
	statePath  string
	focusFile  string
	logLevel   string
	noMPRIS    bool
	notify     bool
}

func parseFlags() options {
	var o options
	flag.StringVarP(&o.configPath, "config", "c", "", "read this config file after the default ones")
	flag.StringVar(&o.vault, "vault", "", "notes vault directory (overrides config)")
	flag.StringVar(&o.statePath, "state", "", "state database path (default: $XDG_DATA_HOME/notebgm/notebgm.db)")
	flag.StringVarP(&o.focusFile, "focus-file", "f", "", "follow a file holding the focused note path instead of reading stdin")
	flag.StringVarP(&o.logLevel, "log-level", "l", "info", "log level (trace, debug, info, warn, error)")
	flag.BoolVar(&o.noMPRIS, "no-mpris", false, "do not expose an MPRIS player")
	flag.BoolVar(&o.notify, "notify", false, "show a desktop notification when a track starts")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "Plays the background track of the focused note. Note paths are read")
		fmt.Fprintln(os.Stderr, "one per line from stdin, or from --focus-file.")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}
	flag.Parse()
	return o
}

func main() {
	opts := parseFlags()

	out := io.Writer(os.Stderr)
	if err := stderr.Start(); err == nil {
		out = stderr.Original()
	}

	code := 0
	if err := run(opts, out); err != nil {
		fmt.Fprintln(out, err)
		code = 1
	}
	stderr.Stop()
	os.Exit(code)
}

func newLogger(out io.Writer, level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}).
		Level(lvl).
		With().Timestamp().
		Logger(), nil
}

func run(opts options, out io.Writer) error {
	log, err := newLogger(out, opts.logLevel)
	if err != nil {
		return fmt.Errorf("--log-level: %w", err)
	}
	stderr.Forward(log)

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return errors.New(errmsg.Format(errmsg.OpLoadConfig, err))
	}
	applyFlags := func(c *config.Config) {
		if opts.vault != "" {
			c.Vault = opts.vault
		}
		if opts.focusFile != "" {
			c.FocusFile = opts.focusFile
		}
		if opts.notify {
			c.Notifications = true
		}
	}
	applyFlags(cfg)
	log.Debug().Strs("files", cfg.Files).Str("vault", cfg.Vault).Msg("configuration loaded")

	stateMgr, err := state.Open(opts.statePath)
	if err != nil {
		return errors.New(errmsg.Format(errmsg.OpOpenDatabase, err))
	}
	defer stateMgr.Close()
	stateMgr.OnSaveError(func(err error) {
		log.Warn().Err(err).Msg(errmsg.Format(errmsg.OpSaveConfig, err))
	})

	store, err := config.NewStore(cfg, opts.configPath, stateMgr)
	if err != nil {
		return errors.New(errmsg.Format(errmsg.OpLoadConfig, err))
	}
	store.OnReload(applyFlags)

	engine := player.NewEngine(log)
	defer engine.Close()

	svc := playback.New(playback.Deps{
		Metadata:   document.Reader{},
		Resolver:   source.VaultResolver{Vault: store.Vault},
		Config:     store,
		NewElement: engine.NewElement,
		Logger:     log,
	})
	defer svc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MPRISEnabled() && !opts.noMPRIS {
		adapter, err := mpris.New(svc, log)
		if err != nil {
			log.Warn().Err(err).Msg(errmsg.Format(errmsg.OpMPRISStart, err))
		} else {
			defer adapter.Close()
		}
	}

	if cfg.Notifications {
		notifier, err := notify.New()
		if err != nil {
			log.Warn().Err(err).Msg(errmsg.Format(errmsg.OpNotify, err))
		} else {
			go notify.NewAnnouncer(notifier, log).Run(ctx, svc.Subscribe())
		}
	}

	focus, err := focusSource(ctx, cfg, log)
	if err != nil {
		return errors.New(errmsg.FormatWith(errmsg.OpWatch, cfg.FocusFile, err))
	}

	loop := &host.Loop{
		Service: svc,
		Focus:   focus,
		Config:  store,
		Log:     log,
	}

	configWatch, err := host.NewWatcher(watchable(config.Paths(opts.configPath))...)
	if err != nil {
		log.Warn().Err(err).Msg(errmsg.Format(errmsg.OpWatch, err))
	} else {
		defer configWatch.Close()
		loop.ConfigWatch = configWatch
	}

	if cfg.FollowEditsEnabled() {
		docWatch, err := host.NewWatcher()
		if err != nil {
			log.Warn().Err(err).Msg(errmsg.Format(errmsg.OpWatch, err))
		} else {
			defer docWatch.Close()
			loop.DocumentWatch = docWatch
		}
	}

	// The focus file reports its content right away. Stdin may stay quiet,
	// so play the fallback until the first line arrives.
	if cfg.FocusFile == "" {
		if err := svc.OnFocusChanged(ctx, ""); err != nil && ctx.Err() == nil {
			return err
		}
	}

	log.Info().Msg("notebgm started")
	err = loop.Run(ctx)
	log.Info().Msg("shutting down")
	return err
}

// focusSource picks where focus changes come from: the focus file when one
// is configured, stdin otherwise. It keeps the startup vault and focus file;
// changing those in the config file takes a restart.
func focusSource(ctx context.Context, cfg *config.Config, log zerolog.Logger) (<-chan host.Focus, error) {
	if cfg.FocusFile != "" {
		return host.FocusFile(ctx, cfg.FocusFile, cfg.Vault, log)
	}
	return host.Lines(ctx, os.Stdin, cfg.Vault), nil
}

// watchable keeps the paths whose directory exists. A config file may be
// created later, but its directory has to be there to be watched.
func watchable(paths []string) []string {
	var out []string
	for _, p := range paths {
		if info, err := os.Stat(filepath.Dir(p)); err == nil && info.IsDir() {
			out = append(out, p)
		}
	}
	return out
}
