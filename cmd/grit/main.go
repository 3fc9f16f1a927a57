package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/odvcencio/grit/pkg/config"
	"github.com/odvcencio/grit/pkg/repo"
	"github.com/odvcencio/grit/pkg/sign"
	"github.com/spf13/cobra"
)

const version = "grit 0.1.0-dev"

// app carries global flags and the settings resolved from them.
type app struct {
	configFile string
	logLevel   string
	workDir    string

	settings *config.Settings
	logger   *slog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "grit",
		Short:         "Loose object plumbing for git repositories",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.configFile, "config", "", "user config file (default $XDG_CONFIG_HOME/grit/config.toml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")
	root.PersistentFlags().StringVarP(&a.workDir, "dir", "C", ".", "run as if started in this directory")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newCatFileCmd(a))
	root.AddCommand(newHashObjectCmd(a))
	root.AddCommand(newLsTreeCmd(a))
	root.AddCommand(newCheckoutCmd(a))
	root.AddCommand(newLogCmd(a))
	root.AddCommand(newShowRefCmd(a))
	root.AddCommand(newTagCmd(a))
	root.AddCommand(newBranchCmd(a))
	root.AddCommand(newRevParseCmd(a))
	root.AddCommand(newWriteTreeCmd(a))
	root.AddCommand(newCommitTreeCmd(a))
	root.AddCommand(newVerifyCmd(a))
	root.AddCommand(newVerifyCommitCmd(a))
	root.AddCommand(newVerifyTagCmd(a))
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	loader := config.NewLoader()
	if err := loader.BindFlag(config.KeyLogLevel, cmd.Root().PersistentFlags().Lookup("log-level")); err != nil {
		return err
	}
	settings, err := loader.Load(a.configFile)
	if err != nil {
		return err
	}
	a.settings = settings
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: settings.LogLevel}))
	if settings.File != "" {
		a.logger.Debug("loaded config", "file", settings.File)
	}
	return nil
}

func (a *app) repoOptions() []repo.Option {
	return []repo.Option{
		repo.WithLogger(a.logger),
		repo.WithCompressionLevel(a.settings.Compression),
	}
}

func (a *app) openRepo() (*repo.Repo, error) {
	return repo.Open(a.workDir, a.repoOptions()...)
}

// signer loads the SSH key named by keyPath, falling back to signing.key
// and then to the default ~/.ssh keys.
func (a *app) signer(keyPath string) (repo.Signer, error) {
	if keyPath == "" {
		keyPath = a.settings.SigningKey
	}
	s, err := sign.LoadSigner(keyPath)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("loaded signing key", "path", s.Path(), "fingerprint", sign.Fingerprint(s.PublicKey()))
	return func(payload []byte) (string, error) {
		return s.Sign(payload, sign.Namespace)
	}, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
