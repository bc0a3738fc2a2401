package host

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/llehouerou/notebgm/internal/config"
	"github.com/llehouerou/notebgm/internal/errmsg"
	"github.com/llehouerou/notebgm/internal/playback"
)

// ConfigReloader re-reads the configuration files.
type ConfigReloader interface {
	Reload() (*config.Config, error)
}

// Watch reports changes to a set of files.
type Watch interface {
	Changes() <-chan string
	Failures() <-chan error
	Set(files ...string) error
}

var _ Watch = (*Watcher)(nil)

// Loop delivers host notifications to the playback service one at a time.
type Loop struct {
	Service playback.Service
	Focus   <-chan Focus

	// Optional. When set, changes to the config files reload the fallback.
	Config      ConfigReloader
	ConfigWatch Watch

	// Optional. When set, the focused note is watched and re-read on change.
	DocumentWatch Watch

	Log zerolog.Logger
}

// Run processes notifications until ctx is done, the focus source is
// exhausted or the service is closed.
func (l *Loop) Run(ctx context.Context) error {
	var configEvents, docEvents <-chan string
	var configErrs, docErrs <-chan error
	if l.ConfigWatch != nil {
		configEvents, configErrs = l.ConfigWatch.Changes(), l.ConfigWatch.Failures()
	}
	if l.DocumentWatch != nil {
		docEvents, docErrs = l.DocumentWatch.Changes(), l.DocumentWatch.Failures()
	}

	current := ""
	for {
		var err error
		select {
		case <-ctx.Done():
			return nil

		case f, ok := <-l.Focus:
			if !ok {
				l.Log.Debug().Msg("focus source closed")
				return nil
			}
			current = f.Path
			l.followDocument(current)
			l.Log.Debug().Str("document", current).Msg("focus changed")
			err = l.Service.OnFocusChanged(ctx, current)

		case name, ok := <-docEvents:
			if !ok {
				docEvents = nil
				continue
			}
			if name != current {
				continue
			}
			l.Log.Debug().Str("document", name).Msg("focused document changed")
			err = l.Service.OnFocusChanged(ctx, current)

		case name, ok := <-configEvents:
			if !ok {
				configEvents = nil
				continue
			}
			err = l.reloadConfig(ctx, name)

		case werr, ok := <-configErrs:
			if !ok {
				configErrs = nil
				continue
			}
			l.Log.Warn().Err(werr).Msg(errmsg.Format(errmsg.OpWatch, werr))

		case werr, ok := <-docErrs:
			if !ok {
				docErrs = nil
				continue
			}
			l.Log.Warn().Err(werr).Msg(errmsg.Format(errmsg.OpWatch, werr))
		}

		switch {
		case err == nil:
		case errors.Is(err, playback.ErrClosed), errors.Is(err, context.Canceled), ctx.Err() != nil:
			return nil
		default:
			return err
		}
	}
}

func (l *Loop) followDocument(path string) {
	if l.DocumentWatch == nil {
		return
	}
	if err := l.DocumentWatch.Set(path); err != nil {
		l.Log.Warn().Err(err).Msg(errmsg.FormatWith(errmsg.OpWatch, path, err))
	}
}

func (l *Loop) reloadConfig(ctx context.Context, name string) error {
	if l.Config == nil {
		return nil
	}
	cfg, err := l.Config.Reload()
	if err != nil {
		l.Log.Warn().Err(err).Str("file", name).Msg(errmsg.FormatWith(errmsg.OpReloadConfig, name, err))
		return nil
	}
	l.Log.Info().Str("file", name).Strs("files", cfg.Files).Msg("configuration reloaded")
	return l.Service.ReloadFallback(ctx)
}
