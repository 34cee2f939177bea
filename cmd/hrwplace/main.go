// Command hrwplace serves a weighted rendezvous placement pool over gRPC.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"hrwplace/internal/config"
	"hrwplace/internal/hashing"
	"hrwplace/internal/placement"
)

type options struct {
	configPath string
	initPath   string
	id         string
	listen     string
	peers      string
	hash       string
	logLevel   string
}

func parseFlags(args []string) (*options, error) {
	fs := flag.NewFlagSet("hrwplace", flag.ContinueOnError)
	opts := &options{}
	fs.StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	fs.StringVar(&opts.initPath, "init-config", "", "write a default config file to this path and exit")
	fs.StringVar(&opts.id, "id", "", "service ID (generated if empty)")
	fs.StringVar(&opts.listen, "listen", "", "gRPC listen address")
	fs.StringVar(&opts.peers, "peers", "", "pool members: id=addr[@weight],...")
	fs.StringVar(&opts.hash, "hash", "", "hash algorithm: "+strings.Join(hashing.Names(), ", "))
	fs.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return opts, nil
}

// buildConfig loads the config file, if any, and applies flag overrides.
func buildConfig(opts *options) (*config.Config, error) {
	cfg := &config.Config{}
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if opts.id != "" {
		cfg.ID = opts.id
	}
	if opts.listen != "" {
		cfg.ListenAddr = opts.listen
	}
	if opts.hash != "" {
		cfg.Hash = opts.hash
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}

	peers, err := config.ParsePeers(opts.peers)
	if err != nil {
		return nil, fmt.Errorf("invalid -peers: %w", err)
	}
	cfg.MergePeers(peers)
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, cfg *config.Config) error {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	log.SetLevel(level)

	hasher, err := hashing.ByName(cfg.Hash)
	if err != nil {
		return err
	}
	pool, err := placement.NewPool(hasher, cfg.BuildMembers())
	if err != nil {
		return err
	}
	log.WithField("caller", "main").
		WithField("hash", cfg.Hash).
		WithField("members", pool.Len()).
		Info("Pool created")

	svc := placement.NewService(cfg.ID, cfg.ListenAddr, pool)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(svc.Start)
	g.Go(func() error {
		<-ctx.Done()
		svc.Stop()
		return nil
	})
	return g.Wait()
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		os.Exit(2)
	}

	if opts.initPath != "" {
		if err := config.Default().WriteFile(opts.initPath); err != nil {
			log.WithError(err).Fatal("Failed to write config")
		}
		log.Infof("Wrote default config to %s", opts.initPath)
		return
	}

	cfg, err := buildConfig(opts)
	if err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.WithError(err).Fatal("Placement service failed")
	}
}
