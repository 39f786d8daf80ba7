package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"trainingcal/internal/config"
	"trainingcal/internal/datemath"
	"trainingcal/internal/events"
	appLog "trainingcal/internal/log"
	"trainingcal/internal/model"
	"trainingcal/internal/viewrange"
)

// ViewOptions select the range a command works on.
type ViewOptions struct {
	View     string
	Date     string
	Timezone string
}

func addViewArgs(cmd *cobra.Command, o *ViewOptions) {
	cmd.Flags().StringVar(&o.View, "view", string(model.DefaultView),
		"Calendar view: day, week, month or year.")
	cmd.Flags().StringVar(&o.Date, "date", "",
		`Anchor date, example: --date="2025-01-15". Defaults to today.`)
}

func addTimezoneArg(cmd *cobra.Command, o *ViewOptions) {
	cmd.Flags().StringVar(&o.Timezone, "timezone", "",
		"IANA timezone the dates are computed in. Defaults to the config file's timezone.")
}

// resolve parses the flags into a range. An empty date means today in loc.
func (o *ViewOptions) resolve(loc *time.Location, now time.Time) (viewrange.Range, error) {
	view, ok := model.ParseViewMode(o.View)
	if !ok {
		return viewrange.Range{}, fmt.Errorf("unknown view %q", o.View)
	}
	anchor := datemath.StartOfDay(now.In(loc))
	if o.Date != "" {
		d, err := datemath.ParseDateKey(o.Date, loc)
		if err != nil {
			return viewrange.Range{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", o.Date)
		}
		anchor = d
	}
	return viewrange.Resolve(view, anchor), nil
}

// location returns the --timezone zone, or the configured one when the flag
// is empty.
func (o *ViewOptions) location(ro *RootOptions) (*time.Location, error) {
	if o.Timezone == "" {
		cfg, err := ro.loadConfig()
		if err != nil {
			return nil, err
		}
		return cfg.Location()
	}
	loc, err := time.LoadLocation(o.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", o.Timezone, err)
	}
	return loc, nil
}

// app is the loaded configuration plus what is derived from it.
type app struct {
	cfg     *config.Config
	loc     *time.Location
	source  *events.Source
	mutator events.Mutator
}

// load reads the config file and builds the event services.
func (ro *RootOptions) load() (*app, error) {
	cfg, err := ro.loadConfig()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, loc: loc}
	a.source, a.mutator = buildServices(cfg, loc)
	return a, nil
}

// loadConfig reads the config file and applies the flag overrides.
func (ro *RootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(ro.ConfigPath)
	if err != nil {
		if cfg == nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		appLog.Warn("could not write default config", "config_path", ro.ConfigPath, "err", err)
	}
	if ro.Dev {
		cfg.DevMode = true
	}
	if ro.LogLevel != "" {
		cfg.Log.Level = ro.LogLevel
	}
	appLog.SetLevel(appLog.ParseLevel(cfg.Log.Level))
	return cfg, nil
}

// buildServices assembles the event service members named in cfg. With no
// members the source serves seed data only.
func buildServices(cfg *config.Config, loc *time.Location) (*events.Source, events.Mutator) {
	var members events.MultiService
	if cfg.EventService.BaseURL != "" {
		members = append(members, events.NewClient(events.ClientOptions{
			BaseURL:  cfg.EventService.BaseURL,
			Token:    cfg.EventService.Token,
			Timeout:  cfg.EventService.Timeout(),
			Location: loc,
		}))
	}
	if len(cfg.ICS) > 0 {
		feeds := make([]events.Feed, 0, len(cfg.ICS))
		for _, f := range cfg.ICS {
			feeds = append(feeds, events.Feed{ID: f.ID, Name: f.Name, URL: f.URL})
		}
		members = append(members, events.NewFeedService(feeds, events.FeedOptions{
			CacheDir: cfg.ICSCacheDir,
			Timeout:  cfg.EventService.Timeout(),
			Location: loc,
		}))
	}

	var svc events.Service
	if len(members) > 0 {
		svc = members
	}
	source := events.NewSource(svc, events.SourceOptions{DevMode: cfg.DevMode})

	var mutator events.Mutator
	if cfg.MutationService.BaseURL != "" {
		mutator = events.NewClient(events.ClientOptions{
			BaseURL:  cfg.MutationService.BaseURL,
			Token:    cfg.MutationService.Token,
			Timeout:  cfg.MutationService.Timeout(),
			Location: loc,
		})
	}

	appLog.Info("event services",
		"members", len(members),
		"ics_count", len(cfg.ICS),
		"mutations", mutator != nil,
		"dev_mode", cfg.DevMode,
	)
	return source, mutator
}

// printWarning writes the seed fallback note, if any, above command output.
func printWarning(w io.Writer, res events.Result) {
	if msg := res.Warning(); msg != "" {
		_, _ = fmt.Fprintln(w, warnColor.Sprint(msg))
	}
}
