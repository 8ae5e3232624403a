package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dikkadev/condatui/pkg/config"
	"github.com/dikkadev/condatui/pkg/environment"
	"github.com/dikkadev/condatui/pkg/packages"
	"github.com/dikkadev/condatui/pkg/platform"
	"github.com/dikkadev/condatui/pkg/storage"
	"github.com/dikkadev/condatui/pkg/ui"
	"github.com/dikkadev/condatui/pkg/update"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type options struct {
	configPath string
	logFile    string
	verbose    bool

	cfg     *config.Config
	logDest *os.File
}

// run executes the command line in args. The log file opened by the
// persistent setup is released on every exit path.
func run(args []string, stdout, stderr io.Writer) error {
	opts := &options{}
	defer opts.close()

	cmd := newRootCmd(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.Execute()
}

func newRootCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "condatui",
		Short: "Browse conda environments and their installed packages",
		Long: `condatui is a read-only terminal UI for conda installations.

It lists the environments of the installation in a tree and shows the
packages installed in the selected one, flagging packages for which the
locally cached channel repodata knows a newer version.

Keys: h shows the logo, q quits, ? lists every binding.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUI(cmd.Context(), opts.cfg)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file (default is $XDG_CONFIG_HOME/condatui/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.logFile, "log", "", "Log file (overrides log_file from the config)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newConfigCmd(opts))

	return cmd
}

func newConfigCmd(opts *options) *cobra.Command {
	var names []string
	for _, op := range config.GetOperations() {
		names = append(names, op.Name)
	}

	return &cobra.Command{
		Use:       "config [show|init|path]",
		Short:     "Inspect or initialize the configuration",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: names,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := "show"
			if len(args) == 1 {
				name = args[0]
			}

			op, err := config.FindOperation(name)
			if err != nil {
				return err
			}
			return op.Handler(opts.cfg, opts.configPath, cmd.OutOrStdout())
		},
	}
}

// setup loads the configuration and points logrus at the log file, since the
// terminal belongs to the UI
func (o *options) setup() error {
	if o.configPath == "" {
		path, err := config.DefaultPath()
		if err != nil {
			return err
		}
		o.configPath = path
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if o.logFile != "" {
		cfg.LogFile = o.logFile
	}
	o.cfg = cfg

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	if o.verbose {
		level = logrus.DebugLevel
	}
	logrus.SetLevel(level)

	if cfg.LogFile == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	o.logDest = f
	logrus.SetOutput(f)

	logrus.WithField("config", o.configPath).Debug("Configuration loaded")
	return nil
}

func (o *options) close() {
	if o.logDest == nil {
		return
	}
	logrus.SetOutput(os.Stderr)
	o.logDest.Close()
	o.logDest = nil
}

func runUI(ctx context.Context, cfg *config.Config) error {
	var checker packages.UpdateChecker = packages.NoUpdates{}
	if cfg.CheckUpdates {
		checker = update.NewRepodataIndex(cfg.RepodataCacheDirs(), platform.Current())
	}

	lister := packages.NewLister(
		storage.NewOpener(storage.Options{PipInterop: cfg.PipInterop}),
		checker,
		packages.NewCache(),
	)

	logo := ui.DefaultLogoLoader()
	if cfg.LogoPath != "" {
		logo = ui.FileLogoLoader(cfg.LogoPath)
	}

	model := ui.NewModel(ctx, environment.NewCatalog(cfg), lister, logo)

	logrus.WithField("root_prefix", cfg.RootPrefix).Info("Starting UI")
	p := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run UI: %w", err)
	}
	return nil
}
