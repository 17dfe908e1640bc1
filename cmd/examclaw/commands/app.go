package commands

import (
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jholhewres/examclaw/pkg/examclaw/config"
	"github.com/jholhewres/examclaw/pkg/examclaw/credential"
	"github.com/jholhewres/examclaw/pkg/examclaw/gemini"
	"github.com/jholhewres/examclaw/pkg/examclaw/media"
	"github.com/jholhewres/examclaw/pkg/examclaw/session"
)

// app bundles what every command needs once config is loaded.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	resolver *credential.Resolver
	ingestor *media.Ingestor
	session  *session.Session
}

// resolveConfig loads the config named by --config, or the first one found.
func resolveConfig(cmd *cobra.Command) (*config.Config, string, error) {
	path, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, used, err := config.Load(path)
	if err != nil {
		return nil, used, err
	}
	return cfg, used, nil
}

// newLogger picks the handler by format and the level by config and --verbose.
// Logs go to stderr so stdout carries only answers.
func newLogger(cfg config.LoggingConfig, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// newApp loads config, sets up logging, resolves the API key and builds the
// session. A missing key is not an error here; commands that invoke the
// model fail on it before any network call.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, cfgPath, err := resolveConfig(cmd)
	if err != nil {
		return nil, err
	}

	verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")
	logger := newLogger(cfg.Logging, verbose)
	if cfgPath != "" {
		logger.Debug("config loaded", "path", cfgPath)
	}

	resolver := credential.NewResolver(logger,
		credential.NewEnvStore(),
		credential.NewKeyringStore(),
		credential.NewVaultStore(cfg.Vault.Path, nil),
	)

	client := gemini.NewClient(gemini.Config{
		Endpoint: cfg.API.Endpoint,
		Timeout:  cfg.API.Timeout,
	}, logger)
	client.SetProgress(printProgress)

	sess := session.New(client, session.Options{
		Models:    cfg.API.Models,
		ExportDir: cfg.Export.Dir,
		Logger:    logger,
	})

	a := &app{
		cfg:      cfg,
		logger:   logger,
		resolver: resolver,
		ingestor: media.NewIngestor(cfg.Media),
		session:  sess,
	}

	explicit, _ := cmd.Root().PersistentFlags().GetString("api-key")
	res, err := resolver.Resolve(explicit, cfg.API.APIKey)
	switch {
	case err == nil:
		sess.SetCredential(res.Key)
		logger.Debug("API key resolved", "source", res.Source)
	case errors.Is(err, credential.ErrNotFound):
		logger.Debug("no API key found; set one with: examclaw config set-key")
	default:
		return nil, err
	}
	return a, nil
}

// loadImage reads a photo into the session.
func (a *app) loadImage(path string) error {
	img, err := a.ingestor.Load(path)
	if err != nil {
		return err
	}
	a.session.SetImage(img)
	a.logger.Debug("photo loaded",
		"file", img.Filename,
		"mime", img.MIMEType,
		"width", img.Width,
		"height", img.Height,
		"resized", img.Resized,
	)
	return nil
}
