// healthassist serves insurance claim, plan benefit and provider directory
// lookups to AI agents over MCP and a small REST API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/matiasleandrokruk/healthassist/internal/api"
	"github.com/matiasleandrokruk/healthassist/internal/domain/insurance"
	"github.com/matiasleandrokruk/healthassist/internal/domain/tool"
	"github.com/matiasleandrokruk/healthassist/internal/infra/config"
	"github.com/matiasleandrokruk/healthassist/internal/infra/dataset"
	"github.com/matiasleandrokruk/healthassist/internal/infra/logging"
	"github.com/matiasleandrokruk/healthassist/internal/infra/sqlite"
	"github.com/matiasleandrokruk/healthassist/internal/mcpserver"
	"github.com/matiasleandrokruk/healthassist/internal/server"
	"github.com/matiasleandrokruk/healthassist/internal/version"
)

const shutdownTimeout = 10 * time.Second

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out, errOut io.Writer) int {
	root := newRootCmd(out, errOut)
	root.SetArgs(args)

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(errOut, "error:", err) //nolint:errcheck
		return 1
	}
	return 0
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "healthassist",
		Short:         "Health insurance lookup tools for AI agents",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetVersionTemplate(version.String() + "\n")

	root.AddCommand(newServeCmd(errOut))
	root.AddCommand(newStdioCmd(errOut))
	root.AddCommand(newToolsCmd(out, errOut))
	root.AddCommand(newCallCmd(out, errOut))
	root.AddCommand(newCheckCmd(out))
	root.AddCommand(newVersionCmd(out))
	return root
}

func newServeCmd(errOut io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST API and the MCP streamable HTTP endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, errOut)
			if err != nil {
				return err
			}
			return a.serve(ctx)
		},
	}
}

func newStdioCmd(errOut io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "stdio",
		Short: "Serve MCP over stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, errOut)
			if err != nil {
				return err
			}
			defer a.close()

			a.logger.Info().Msg("serving MCP over stdio")
			return mcpserver.New(a.svc, a.logger).Run(ctx, &mcp.StdioTransport{})
		},
	}
}

func newToolsCmd(out, errOut io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Print the tool definitions as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), errOut)
			if err != nil {
				return err
			}
			defer a.close()

			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(a.registry.Definitions())
		},
	}
}

func newCallCmd(out, errOut io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "call <tool> [json-arguments]",
		Short: "Run one tool call locally and print its JSON result",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := json.RawMessage(`{}`)
			if len(args) == 2 {
				params = json.RawMessage(args[1])
			}

			a, err := newApp(cmd.Context(), errOut)
			if err != nil {
				return err
			}
			defer a.close()

			result, err := a.registry.Call(cmd.Context(), args[0], params)
			if err != nil {
				return err
			}

			var pretty any
			if err := json.Unmarshal(result, &pretty); err != nil {
				return fmt.Errorf("decode result: %w", err)
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(pretty)
		},
	}
}

func newCheckCmd(out io.Writer) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "check [dataset-file]",
		Short: "Validate a reference dataset and report consistency problems",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			source := "builtin"
			var (
				ds  *dataset.Dataset
				err error
			)
			if len(args) == 1 {
				source = args[0]
				ds, err = dataset.LoadFile(source)
			} else {
				ds, err = dataset.Builtin()
			}
			if err != nil {
				return err
			}

			claims, plans, providers := ds.Counts()
			violations := ds.Check()
			var report strings.Builder
			fmt.Fprintf(&report, "=== Dataset Report (%s) ===\n", source)
			fmt.Fprintf(&report, "Claims: %d  Plans: %d  Providers: %d\n", claims, plans, providers)
			fmt.Fprintf(&report, "Violations: %d\n", len(violations))
			for _, v := range violations {
				report.WriteString(v.String() + "\n")
			}
			fmt.Fprint(out, report.String()) //nolint:errcheck

			if strict && len(violations) > 0 {
				return fmt.Errorf("%d dataset violations found", len(violations))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when any violation is found")
	return cmd
}

func newVersionCmd(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintln(out, version.String()) //nolint:errcheck
		},
	}
}

// app is the wired process: config, logger, lookup service and tool registry.
type app struct {
	cfg      config.Config
	logger   zerolog.Logger
	svc      *insurance.Service
	registry *tool.ToolRegistry
	closers  []io.Closer
}

func newApp(ctx context.Context, logOut io.Writer) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, logOut)
	if err != nil {
		return nil, err
	}

	ds, err := loadDataset(cfg)
	if err != nil {
		return nil, err
	}
	claims, plans, providers := ds.Counts()
	logger.Info().
		Str("source", datasetSource(cfg)).
		Int("claims", claims).
		Int("plans", plans).
		Int("providers", providers).
		Msg("reference data loaded")
	for _, v := range ds.Check() {
		logger.Warn().Str("code", v.Code).Str("subject", v.Subject).Msg(v.Message)
	}

	a := &app{cfg: cfg, logger: logger}

	var repo insurance.Repository = ds
	if cfg.DataBackend == config.BackendSQLite {
		db, mirror, err := sqlite.OpenMirror(ctx, cfg.SQLitePath, ds)
		if err != nil {
			return nil, fmt.Errorf("open sqlite mirror: %w", err)
		}
		a.closers = append(a.closers, db)
		repo = mirror
		schema, err := sqlite.MigrationVersion(ctx, db)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("read sqlite schema version: %w", err)
		}
		logger.Info().Str("path", cfg.SQLitePath).Int("schema_version", schema).Msg("serving from sqlite mirror")
	}

	a.svc = insurance.NewService(repo)
	a.registry = tool.NewToolRegistry(logger)
	if err := tool.RegisterBuiltInExecutors(a.registry, a.svc); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func loadDataset(cfg config.Config) (*dataset.Dataset, error) {
	if cfg.DatasetPath == "" {
		return dataset.Builtin()
	}
	return dataset.LoadFile(cfg.DatasetPath)
}

func datasetSource(cfg config.Config) string {
	if cfg.DatasetPath == "" {
		return "builtin"
	}
	return cfg.DatasetPath
}

func (a *app) serve(ctx context.Context) error {
	mcpServer := mcpserver.New(a.svc, a.logger)
	handler := api.NewRouter(api.Deps{
		Registry: a.registry,
		Service:  a.svc,
		MCP:      mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return mcpServer }, nil),
		Logger:   a.logger,
	})

	srvCfg := server.DefaultConfig()
	srvCfg.Host = a.cfg.HTTPHost
	srvCfg.Port = a.cfg.HTTPPort
	srv := server.NewServer(handler, srvCfg, a.logger, a.closers...)

	a.logger.Info().
		Str("addr", srv.Addr()).
		Str("mcp_endpoint", "http://"+a.cfg.Addr()+"/mcp").
		Msg("serving MCP over streamable HTTP")

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(ctx) }()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (a *app) close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("release resource")
		}
	}
	a.closers = nil
}
