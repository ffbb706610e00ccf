package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xraph/settle"
	audithook "github.com/xraph/settle/audit_hook"
	"github.com/xraph/settle/participant"
	"github.com/xraph/settle/store"
	"github.com/xraph/settle/store/file"
	"github.com/xraph/settle/store/memory"
	"github.com/xraph/settle/store/nop"
	redisstore "github.com/xraph/settle/store/redis"
	s3store "github.com/xraph/settle/store/s3"
	"github.com/xraph/settle/types"
)

// app holds per-invocation state shared by the subcommands.
type app struct {
	stderr io.Writer

	configPath string
	verbose    bool
	store      string
	dir        string
	redisAddr  string
	s3Bucket   string
	s3Region   string
	s3Endpoint string
	locale     string

	cfg      *Config
	logger   *slog.Logger
	registry *settle.Registry
	format   types.Locale
}

// Execute runs the CLI against the process arguments.
func Execute() error {
	return Run(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
}

// Run executes the CLI with args, writing command output to stdout and
// logs to stderr. The store is closed before Run returns.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	a := &app{stderr: stderr}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	defer a.close()

	return root.ExecuteContext(ctx)
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "settle",
		Short:        "Split shared expenses and print who owes whom",
		SilenceUsage: true,
	}
	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return a.setup(cmd)
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "settle.yaml", "path to the YAML config file")
	pf.StringVar(&a.store, "store", "", "store backend: file, memory, redis, s3 or nop")
	pf.StringVar(&a.dir, "dir", "", "directory for the file store")
	pf.StringVar(&a.redisAddr, "redis-addr", "", "redis address for the redis store")
	pf.StringVar(&a.s3Bucket, "s3-bucket", "", "bucket for the s3 store")
	pf.StringVar(&a.s3Region, "s3-region", "", "region for the s3 store")
	pf.StringVar(&a.s3Endpoint, "s3-endpoint", "", "custom endpoint for the s3 store")
	pf.StringVar(&a.locale, "locale", "", "number format: es or en")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		a.addCmd(),
		a.removeCmd(),
		a.listCmd(),
		a.settleCmd(),
		a.resetCmd(),
	)
	return root
}

// setup loads configuration, opens the store and starts the registry.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	a.applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	a.format, _ = types.LookupLocale(cfg.Locale)
	a.logger = newLogger(a.stderr, cfg.Logging.Level, a.verbose)

	ctx := cmd.Context()
	kv, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}

	opts := []settle.Option{
		settle.WithLogger(a.logger),
		settle.WithSnapshotKey(cfg.SnapshotKey),
		settle.WithPlugin(audithook.New(a.auditRecorder(), audithook.WithLogger(a.logger))),
	}
	if len(cfg.Palette) > 0 {
		palette := make(participant.Palette, 0, len(cfg.Palette))
		for _, c := range cfg.Palette {
			palette = append(palette, participant.Color(c))
		}
		opts = append(opts, settle.WithPalette(palette))
	}

	a.registry = settle.New(kv, opts...)
	if err := a.registry.Start(ctx); err != nil {
		_ = kv.Close()
		a.registry = nil
		return fmt.Errorf("start registry: %w", err)
	}
	return nil
}

func (a *app) applyFlags(cmd *cobra.Command, cfg *Config) {
	flags := cmd.Flags()
	if flags.Changed("store") {
		cfg.Store = a.store
	}
	if flags.Changed("dir") {
		cfg.Dir = a.dir
	}
	if flags.Changed("redis-addr") {
		cfg.Redis.Addr = a.redisAddr
	}
	if flags.Changed("s3-bucket") {
		cfg.S3.Bucket = a.s3Bucket
	}
	if flags.Changed("s3-region") {
		cfg.S3.Region = a.s3Region
	}
	if flags.Changed("s3-endpoint") {
		cfg.S3.Endpoint = a.s3Endpoint
		cfg.S3.PathStyle = true
	}
	if flags.Changed("locale") {
		cfg.Locale = a.locale
	}
}

// auditRecorder writes audit events to the debug log.
func (a *app) auditRecorder() audithook.Recorder {
	return audithook.RecorderFunc(func(ctx context.Context, evt *audithook.AuditEvent) error {
		a.logger.DebugContext(ctx, "audit",
			"action", evt.Action,
			"resource", evt.Resource,
			"resource_id", evt.ResourceID,
			"outcome", evt.Outcome,
		)
		return nil
	})
}

func (a *app) close() {
	if a.registry == nil {
		return
	}
	if err := a.registry.Stop(); err != nil {
		a.logger.Warn("settle: closing store", "error", err)
	}
	a.registry = nil
}

func openStore(ctx context.Context, cfg *Config) (store.Store, error) {
	switch cfg.Store {
	case StoreFile:
		return file.New(cfg.Dir), nil
	case StoreMemory:
		return memory.New(), nil
	case StoreNop:
		return nop.New(), nil
	case StoreRedis:
		return redisstore.Open(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB), nil
	case StoreS3:
		return s3store.New(ctx, s3store.Config{
			Region:    cfg.S3.Region,
			Bucket:    cfg.S3.Bucket,
			Prefix:    cfg.S3.Prefix,
			Endpoint:  cfg.S3.Endpoint,
			PathStyle: cfg.S3.PathStyle,
		})
	default:
		return nil, fmt.Errorf("%w: %q", settle.ErrInvalidStoreDriver, cfg.Store)
	}
}

func newLogger(w io.Writer, level string, verbose bool) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelWarn
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
