// Command kotatsu-auth drives source login flows from a terminal. It builds
// the engine from a YAML config, runs the headless browser, and reports the
// flow outcome; token subcommands manage stored bearer tokens directly.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	kotatsu "github.com/LanaDelRey07/Kotatsu"
	"github.com/LanaDelRey07/Kotatsu/internal/browser"
	"github.com/LanaDelRey07/Kotatsu/internal/logger"
	"github.com/LanaDelRey07/Kotatsu/metrics/export/prometheus"
	"github.com/alicebob/miniredis/v2"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func main() {
	// Local overrides; absence is normal.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type app struct {
	engine  *kotatsu.Engine
	cleanup func()
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		debug      bool
	)

	root := &cobra.Command{
		Use:           "kotatsu-auth",
		Short:         "Drive web login flows for kotatsu content sources",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "verbose logging")

	root.AddCommand(
		newSourcesCmd(&configPath, &debug),
		newLoginCmd(&configPath, &debug),
		newTokenCmd(&configPath, &debug),
	)
	return root
}

func buildApp(configPath string, debug bool) (*app, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}

	log, err := logger.Init(debug || cfg.Debug)
	if err != nil {
		return nil, err
	}

	cleanup := func() { _ = logger.Sync() }

	var client redis.UniversalClient
	if cfg.RedisAddr != "" {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{cfg.RedisAddr},
		})
		prev := cleanup
		cleanup = func() {
			_ = client.Close()
			prev()
		}
		log.Debug("using redis for cookie and token persistence")
	} else if os.Getenv("KOTATSU_MINIREDIS") == "1" {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, fmt.Errorf("start miniredis: %w", err)
		}
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{mr.Addr()},
		})
		prev := cleanup
		cleanup = func() {
			_ = client.Close()
			mr.Close()
			prev()
		}
		log.Debug("using miniredis; persistence lasts for this process only")
	}

	builder := kotatsu.New()
	if cfg.UserAgent != "" {
		base := kotatsu.DefaultConfig()
		base.HTTP.UserAgent = cfg.UserAgent
		builder.WithConfig(base)
	}
	if client != nil {
		builder.WithRedis(client)
	}
	if cfg.AuditLog != "" {
		out, err := os.OpenFile(cfg.AuditLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open audit log: %w", err)
		}
		prev := cleanup
		cleanup = func() {
			_ = out.Close()
			prev()
		}
		builder.WithAuditSink(kotatsu.NewJSONWriterSink(out))
	}
	builder.WithLogger(log.Named("kotatsu"))

	engine, err := builder.Build()
	if err != nil {
		cleanup()
		return nil, err
	}
	engine.SetBrowserFactory(browser.Factory(engine.HTTPClient(), browser.Options{}))

	for _, src := range cfg.Sources {
		registered := kotatsu.Source{ID: src.ID, Title: src.Title}
		if src.Auth != nil {
			switch src.Auth.Type {
			case "cookie":
				registered.Auth = engine.NewCookieAuthenticator(src.Auth.LoginURL, src.Auth.Domain, src.Auth.Cookie)
			case "token":
				registered.Auth = engine.NewTokenAuthenticator(src.Auth.LoginURL, src.ID)
			}
		}
		if err := engine.RegisterSource(registered); err != nil {
			engine.Close()
			cleanup()
			return nil, fmt.Errorf("register source %s: %w", src.ID, err)
		}
	}

	prev := cleanup
	return &app{
		engine: engine,
		cleanup: func() {
			engine.Close()
			prev()
		},
	}, nil
}

func newSourcesCmd(configPath *string, debug *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List configured sources and their auth capability",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := buildApp(*configPath, *debug)
			if err != nil {
				return err
			}
			defer app.cleanup()

			for _, src := range app.engine.Sources() {
				auth := "none"
				if src.Auth != nil {
					auth = src.Auth.AuthURL()
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", src.ID, src.Title, auth)
			}
			return nil
		},
	}
}

func newLoginCmd(configPath *string, debug *bool) *cobra.Command {
	var (
		timeout     time.Duration
		showMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "login <source-id>",
		Short: "Run the web login flow for one source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(*configPath, *debug)
			if err != nil {
				return err
			}
			defer app.cleanup()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			flow, err := app.engine.StartSourceAuth(ctx, args[0])
			if err != nil {
				if errors.Is(err, kotatsu.ErrAuthNotSupported) {
					return fmt.Errorf("source %s does not support authentication", args[0])
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "flow %s started for %s\n", flow.ID(), flow.SourceID())
			result := <-flow.Result()
			fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s: %s\n", result.Tag, result.SourceID, result.Outcome)

			if showMetrics {
				fmt.Fprint(cmd.OutOrStdout(), prometheus.NewPrometheusExporter(app.engine).Render())
			}
			if result.Outcome != kotatsu.OutcomeAuthorized {
				return fmt.Errorf("login not completed")
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "abort the flow after this long (0 = no limit)")
	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "print engine metrics after the flow")
	return cmd
}

func newTokenCmd(configPath *string, debug *bool) *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Manage stored bearer tokens",
	}

	tokenCmd.AddCommand(&cobra.Command{
		Use:   "set <source-id> <token>",
		Short: "Store a bearer token for a source",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(*configPath, *debug)
			if err != nil {
				return err
			}
			defer app.cleanup()

			if err := app.engine.Tokens().Put(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "stored")
			return nil
		},
	})

	tokenCmd.AddCommand(&cobra.Command{
		Use:   "forget <source-id>",
		Short: "Drop the stored token for a source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(*configPath, *debug)
			if err != nil {
				return err
			}
			defer app.cleanup()

			if err := app.engine.Tokens().Forget(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "forgotten")
			return nil
		},
	})

	return tokenCmd
}
