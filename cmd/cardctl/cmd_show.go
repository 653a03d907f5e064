package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/membercards/internal/cardclient"
	"github.com/angelmondragon/membercards/pkg/config"
	"github.com/angelmondragon/membercards/pkg/logger"
	"github.com/angelmondragon/membercards/pkg/redis"
)

const defaultBaseURL = "http://localhost:3000"

var showFlags struct {
	baseURL  string
	cacheDir string
	redisURL string
	cacheTTL time.Duration
	timeout  time.Duration
	asJSON   bool
	verbose  bool
}

var showCmd = &cobra.Command{
	Use:   "show <member-id>",
	Short: "Render a member card, using the offline cache when the registry is unreachable",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	f := showCmd.Flags()
	f.StringVar(&showFlags.baseURL, "base-url", envOr(config.EnvPublicBaseURL, defaultBaseURL), "Registry base URL")
	f.StringVar(&showFlags.cacheDir, "cache-dir", ".cardcache", "Directory for the offline card cache")
	f.StringVar(&showFlags.redisURL, "redis-url", os.Getenv(config.EnvRedisURL), "Use redis as the card cache instead of --cache-dir")
	f.DurationVar(&showFlags.cacheTTL, "cache-ttl", 720*time.Hour, "Expiry of redis cache entries (0 keeps them)")
	f.DurationVar(&showFlags.timeout, "timeout", 10*time.Second, "Registry request timeout")
	f.BoolVar(&showFlags.asJSON, "json", false, "Print the card as JSON")
	f.BoolVar(&showFlags.verbose, "verbose", false, "Log fetch and cache diagnostics to stderr")
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	level := logger.ParseLevel("error")
	if showFlags.verbose {
		level = logger.ParseLevel("debug")
	}
	logg := logger.New(logger.Options{ServiceName: "cardctl", Level: level, Output: cmd.ErrOrStderr()})

	fetcher, err := cardclient.NewHTTPClient(showFlags.baseURL, showFlags.timeout)
	if err != nil {
		return err
	}

	var cache cardclient.Cache
	if url := strings.TrimSpace(showFlags.redisURL); url != "" {
		client, err := redis.New(ctx, config.RedisConfig{URL: url}, nil)
		if err != nil {
			return fmt.Errorf("connect card cache: %w", err)
		}
		defer client.Close()
		cache, err = cardclient.NewRedisCache(client, showFlags.cacheTTL)
		if err != nil {
			return err
		}
	} else {
		cache, err = cardclient.NewFileCache(showFlags.cacheDir)
		if err != nil {
			return err
		}
	}

	loader, err := cardclient.NewLoader(fetcher, cache, logg, nil)
	if err != nil {
		return err
	}

	res := loader.Load(ctx, args[0])
	if res.State == cardclient.StateError {
		return fmt.Errorf("%s", res.Message)
	}

	out := cmd.OutOrStdout()
	if showFlags.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res.View)
	}
	printView(out, *res.View)
	return nil
}

func printView(out io.Writer, v cardclient.View) {
	fmt.Fprintf(out, "Nome:      %s\n", v.Nome)
	fmt.Fprintf(out, "Filiação:  %s\n", v.Numero)
	fmt.Fprintf(out, "Validade:  %s\n", v.Validade)
	fmt.Fprintf(out, "Status:    %s\n", v.Status)
	if v.Photo != "" {
		fmt.Fprintf(out, "Foto:      %s\n", v.Photo)
	}
	if v.QRCode != "" {
		fmt.Fprintf(out, "QR code:   %d bytes\n", len(v.QRCode))
	}
	if v.Offline {
		fmt.Fprintln(out, "(offline copy)")
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
