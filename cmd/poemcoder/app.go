package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"poemcoder/internal/cache"
	"poemcoder/internal/coding"
	"poemcoder/internal/config"
	"poemcoder/internal/crawler"
	"poemcoder/internal/extractor"
	"poemcoder/internal/logger"
	"poemcoder/internal/models"
	"poemcoder/internal/normalizer"
	"poemcoder/internal/progress"
	"poemcoder/internal/store"
	"poemcoder/internal/worklist"
)

// defaultConfigPath is used when --config is not given and the file exists.
const defaultConfigPath = "configs/poemcoder.yaml"

var errNoWorklist = errors.New("no worklist configured: pass --worklist or set worklist.path")

// globalOptions are the persistent flags.
type globalOptions struct {
	configPath string
	worklist   string
	coderID    string
	logLevel   string
}

// app holds the wired components for one command invocation.
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	cache   *cache.Store
	fetcher *crawler.Fetcher
	client  *crawler.Client
	store   *store.Store
	tracker *progress.Tracker
	service *coding.Service
}

func loadConfig(opts *globalOptions) (*config.Config, error) {
	path := opts.configPath
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			path = defaultConfigPath
		}
	}

	cfg := config.Default()

	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, err
		}

		cfg = loaded
	}

	cfg.ApplyEnv(os.LookupEnv)

	if opts.worklist != "" {
		cfg.Worklist.Path = opts.worklist
	}

	if opts.coderID != "" {
		cfg.Coding.CoderID = strings.TrimSpace(opts.coderID)
	}

	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func newApp(opts *globalOptions, stderr io.Writer) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	log := logger.New(logger.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: stderr})

	baseTags, err := normalizer.TagSet(cfg.Coding.TagSet)
	if err != nil {
		return nil, err
	}

	htmlCache := cache.NewStore(cfg.Cache.Dir)
	fetcher := crawler.NewFetcher(htmlCache, cfg.Fetcher, crawler.WithLogger(log))
	client := crawler.NewClient(fetcher, extractor.New(log), log)
	records := store.New(cfg.Store, log)
	tracker := progress.NewTracker(records, log)
	processor := normalizer.NewProcessor(normalizer.WithBaseTags(baseTags))

	return &app{
		cfg:     cfg,
		log:     log,
		cache:   htmlCache,
		fetcher: fetcher,
		client:  client,
		store:   records,
		tracker: tracker,
		service: coding.NewService(client, processor, records, tracker, log),
	}, nil
}

func (a *app) loadWorklist() ([]models.PoemReference, error) {
	if strings.TrimSpace(a.cfg.Worklist.Path) == "" {
		return nil, errNoWorklist
	}

	refs, err := worklist.NewLoader(a.log).LoadFile(a.cfg.Worklist.Path)
	if err != nil {
		return nil, err
	}

	a.log.Debug("worklist loaded", "path", a.cfg.Worklist.Path, "poems", len(refs))

	return refs, nil
}

func (a *app) coderID() (string, error) {
	coder := strings.TrimSpace(a.cfg.Coding.CoderID)
	if coder == "" {
		return "", fmt.Errorf("%w: pass --coder or set %s", progress.ErrMissingCoderID, config.EnvCoderID)
	}

	return coder, nil
}

// resolveRef finds a worklist entry by 1-based index or by URL.
func resolveRef(refs []models.PoemReference, arg string) (int, error) {
	arg = strings.TrimSpace(arg)

	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(refs) {
			return 0, fmt.Errorf("%w: %d not in 1..%d", coding.ErrIndexOutOfRange, n, len(refs))
		}

		return n - 1, nil
	}

	for i, ref := range refs {
		if ref.URL == arg {
			return i, nil
		}
	}

	return 0, fmt.Errorf("url not in worklist: %s", arg)
}
