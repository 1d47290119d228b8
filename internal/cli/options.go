package cli

import (
	"fmt"
	"net/url"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/internal/adapters/file"
	"github.com/aretw0/lattice/internal/adapters/redis"
	"github.com/aretw0/lattice/internal/runtime"
	"github.com/aretw0/lattice/internal/script"
	redisstore "github.com/aretw0/lattice/pkg/adapters/redis"
	"github.com/aretw0/lattice/pkg/session"
	"github.com/aretw0/lattice/pkg/upload"
)

// RunOptions contains all the configuration for the run command. Zero
// values fall back to the config file.
type RunOptions struct {
	URL            string
	Query          map[string]string
	ConfigPath     string
	ConfigExplicit bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	DebounceMS   int
	Scripts      bool
	ScriptStdlib bool

	SessionID string // resume and snapshot under this ID
	Fresh     bool   // skip resuming even when a snapshot exists

	UploadEndpoint string

	Debug bool
	Once  bool // open, print one render, exit
}

// Execute handles the run command: merge config, build the client, drive
// the session.
func Execute(opts RunOptions) error {
	cfg, err := LoadConfig(orDefault(opts.ConfigPath, DefaultConfigPath), opts.ConfigExplicit)
	if err != nil {
		return err
	}
	merged := mergeConfig(opts, cfg)
	if merged.URL == "" {
		return fmt.Errorf("no page URL: pass one as argument or set url in %s", DefaultConfigPath)
	}
	return RunSession(merged, cfg)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// mergeConfig resolves flags over config file values.
func mergeConfig(opts RunOptions, cfg *Config) RunOptions {
	if opts.URL == "" {
		opts.URL = cfg.URL
	}
	if opts.Query == nil {
		opts.Query = cfg.Query
	}
	if opts.RedisAddr == "" {
		opts.RedisAddr = cfg.Redis.Addr
		opts.RedisPassword = cfg.Redis.Password
		opts.RedisDB = cfg.Redis.DB
	}
	if opts.DebounceMS == 0 {
		opts.DebounceMS = cfg.DebounceMS
	}
	if !opts.Scripts {
		opts.Scripts = cfg.Scripts.Enabled
		opts.ScriptStdlib = cfg.Scripts.Stdlib
	}
	if opts.UploadEndpoint == "" {
		opts.UploadEndpoint = cfg.UploadEndpoint
	}
	return opts
}

// buildClient assembles the lattice client from resolved options. The
// returned uploader is nil unless an upload endpoint is configured.
func buildClient(opts RunOptions, cfg *Config, boundary func(error)) (*lattice.Client, *upload.HTTPUploader, error) {
	logger := createLogger(opts.Debug)

	clientOpts := []lattice.Option{
		lattice.WithLogger(logger),
		lattice.WithErrorBoundary(boundary),
	}

	if len(opts.Query) > 0 {
		query := url.Values{}
		for k, v := range opts.Query {
			query.Set(k, v)
		}
		clientOpts = append(clientOpts, lattice.WithQuery(query))
	}

	if opts.RedisAddr != "" {
		rtOpts := []redis.Option{redis.WithLogger(logger)}
		if cfg.Redis.Prefix != "" {
			rtOpts = append(rtOpts, redis.WithPrefix(cfg.Redis.Prefix))
		}
		source := redis.New(opts.RedisAddr, opts.RedisPassword, opts.RedisDB, rtOpts...)
		clientOpts = append(clientOpts, lattice.WithRealtime(source))
	}

	if opts.Scripts {
		scriptOpts := []script.Option{script.WithLogger(logger)}
		if opts.ScriptStdlib {
			scriptOpts = append(scriptOpts, script.WithStdlib())
		}
		clientOpts = append(clientOpts, lattice.WithScripts(script.New(scriptOpts...)))
	}

	if opts.DebounceMS > 0 {
		clientOpts = append(clientOpts,
			lattice.WithFormOptions(runtime.WithDebounce(time.Duration(opts.DebounceMS)*time.Millisecond)))
	}

	var uploader *upload.HTTPUploader
	if opts.UploadEndpoint != "" {
		uploader = upload.NewHTTPUploader(opts.UploadEndpoint, upload.WithUploadLogger(logger))
		clientOpts = append(clientOpts, lattice.WithUploader(uploader))
	}

	client, err := lattice.New(opts.URL, clientOpts...)
	return client, uploader, err
}

// SessionManager aliases the snapshot manager for command wiring.
type SessionManager = session.Manager

// NewSessionManager resolves config and builds the snapshot manager the
// same way the run command would.
func NewSessionManager(opts RunOptions) (*session.Manager, error) {
	cfg, err := LoadConfig(orDefault(opts.ConfigPath, DefaultConfigPath), opts.ConfigExplicit)
	if err != nil {
		return nil, err
	}
	merged := mergeConfig(opts, cfg)
	return buildSessionManager(merged, cfg), nil
}

// buildSessionManager picks the snapshot backend: Redis when the realtime
// connection is configured anyway, local files otherwise.
func buildSessionManager(opts RunOptions, cfg *Config) *session.Manager {
	logger := createLogger(opts.Debug)

	if opts.RedisAddr != "" {
		client := backend.NewClient(&backend.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})
		storeOpts := []redisstore.StoreOption{}
		if cfg.Redis.Prefix != "" {
			storeOpts = append(storeOpts, redisstore.WithStorePrefix(cfg.Redis.Prefix))
		}
		store := redisstore.NewStore(client, storeOpts...)
		locker := redisstore.NewLocker(client, "lattice:")
		return session.NewManager(store,
			session.WithLocker(locker),
			session.WithLogger(logger),
		)
	}

	return session.NewManager(file.New(""), session.WithLogger(logger))
}
