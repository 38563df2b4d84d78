package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/fintab-labs/gridsave/internal/cliconfig"
	"github.com/fintab-labs/gridsave/pkg/gridsave"
)

const helpDescription = `
Replay unsaved forecast drafts from the on-disk journal to the remote table
store in one batched upsert.

Highlights:
  - One-shot by default: load the journal, flush, exit.
  - --watch keeps the session resident, autosaving on the debounce timer and
    hot-applying autosave tuning when the config file changes.
  - Configure via file ($HOME/.gridsave/config.toml), GRIDSAVE_* env, or flags.
`

var exampleUsage = strings.TrimSpace(`
  gridsave --journal-dir ~/.gridsave/drafts --auth-key <api-key>
  gridsave --config $HOME/.gridsave/config.toml --watch
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string
	var watch bool

	log := cliconfig.Logger()

	root := &cobra.Command{
		Use:     "gridsave",
		Short:   "Replay unsaved forecast drafts to the remote table store",
		Long:    strings.TrimSpace(helpDescription),
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Config precedence: defaults, then file, then env, then flags.
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			changed := changedFlags(cmd.Flags())

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config file: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			session, err := gridsave.New(gridsave.Config{
				ServiceURL:        cfg.ServiceURL,
				AuthKey:           cfg.AuthKey,
				Table:             cfg.Table,
				JournalDir:        cfg.JournalDir,
				AutosaveDelay:     cfg.AutosaveDelay,
				SavedStatusWindow: cfg.SavedStatusWindow,
				ErrorStatusWindow: cfg.ErrorStatusWindow,
				HTTPTimeout:       cfg.HTTPTimeout,
			}, gridsave.WithLogger(log))
			if err != nil {
				return err
			}

			if !watch {
				if !session.HasUnsaved() {
					log.Info("no unsaved drafts to replay")
					return session.Close(cmd.Context())
				}
				return session.Close(cmd.Context())
			}

			return runWatch(cmd.Context(), session, cfgFile, log)
		},
	}

	flags := root.Flags()
	flags.StringVarP(&cfgPath, "config", "c", "", "path to config file (default $HOME/.gridsave/config.toml)")
	flags.StringVar(&cfg.ServiceURL, "service-url", cfg.ServiceURL, "base URL of the remote table store")
	flags.StringVar(&cfg.AuthKey, "auth-key", cfg.AuthKey, "API key for the remote table store")
	flags.StringVar(&cfg.Table, "table", cfg.Table, "remote table receiving batched upserts")
	flags.StringVar(&cfg.JournalDir, "journal-dir", cfg.JournalDir, "directory holding the draft journal")
	flags.DurationVar(&cfg.AutosaveDelay, "autosave-delay", cfg.AutosaveDelay, "quiet period before an automatic flush")
	flags.DurationVar(&cfg.SavedStatusWindow, "saved-window", cfg.SavedStatusWindow, "how long the Saved indicator holds")
	flags.DurationVar(&cfg.ErrorStatusWindow, "error-window", cfg.ErrorStatusWindow, "how long the Error indicator holds")
	flags.DurationVar(&cfg.HTTPTimeout, "timeout", cfg.HTTPTimeout, "HTTP client timeout")
	flags.BoolVar(&watch, "watch", false, "stay resident: autosave on the debounce timer, hot-reload config")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runWatch keeps the session resident until interrupted, flushing recovered
// drafts on the usual debounce and retuning on config file changes.
func runWatch(ctx context.Context, session *gridsave.Session, cfgFile string, log gridsave.Logger) error {
	if cfgFile != "" {
		watcher := cliconfig.NewWatcher(cfgFile, log, func(next cliconfig.Config) {
			session.Retune(next.AutosaveDelay, next.SavedStatusWindow, next.ErrorStatusWindow)
		})
		go watcher.Run(ctx)
	}

	<-ctx.Done()
	return session.Close(context.Background())
}

// changedFlags returns the set of flags the user set explicitly, so file and
// env values never override them.
func changedFlags(flags *pflag.FlagSet) map[string]bool {
	changed := make(map[string]bool)
	flags.Visit(func(f *pflag.Flag) {
		changed[f.Name] = true
	})
	return changed
}
