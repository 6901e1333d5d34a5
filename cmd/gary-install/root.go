package main

import (
	"errors"
	"os"
	"runtime"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/gary-dev/gary-install/internal/bootstrap"
	"github.com/gary-dev/gary-install/internal/config"
	"github.com/gary-dev/gary-install/internal/logging"
	"github.com/gary-dev/gary-install/internal/messages"
	"github.com/gary-dev/gary-install/internal/proc"
	"github.com/gary-dev/gary-install/internal/report"
	"github.com/gary-dev/gary-install/internal/terminal"
)

var (
	runBootstrap = bootstrap.Run
	loadConfig   = config.Load
	homeDir      = homedir.Dir
	getenv       = os.Getenv
	goos         = runtime.GOOS
)

// rootFlags holds the persistent flags shared by every command.
type rootFlags struct {
	configPath string
	verbosity  int
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:           messages.RootUse,
		Short:         messages.RootShort,
		Long:          messages.RootLong,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(flags.verbosity, cmd.ErrOrStderr())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd, flags)
		},
	}
	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", messages.RootConfigFlag)
	cmd.PersistentFlags().CountVarP(&flags.verbosity, "verbose", "v", messages.RootVerboseFlag)
	cmd.Flags().Bool("version", false, messages.RootVersionFlag)
	cmd.AddCommand(newCheckCmd(flags), newBackupsCmd(flags))
	return cmd
}

// resolveConfig loads the effective configuration. A failure is reported as
// ConfigInvalid and turned into a silent exit.
func resolveConfig(flags *rootFlags, rep *report.Reporter) (config.Config, string, error) {
	cfg, err := loadConfig(config.LoadOptions{
		Path:     flags.configPath,
		Explicit: flags.configPath != "",
		GOOS:     goos,
		Getenv:   getenv,
	})
	if err != nil {
		hint := messages.ConfigFileHint
		if errors.Is(err, config.ErrConfigValidation) {
			hint = messages.ConfigValidationHint
		}
		rep.Fail(string(bootstrap.KindConfigInvalid), err.Error(), hint)
		return config.Config{}, "", &SilentExitError{Code: 1}
	}
	home, err := homeDir()
	if err != nil {
		rep.Fail(string(bootstrap.KindConfigInvalid), err.Error(), "")
		return config.Config{}, "", &SilentExitError{Code: 1}
	}
	return cfg, home, nil
}

func runInstall(cmd *cobra.Command, flags *rootFlags) error {
	out := cmd.OutOrStdout()
	rep := report.New(out)
	cfg, home, err := resolveConfig(flags, rep)
	if err != nil {
		return err
	}

	_, err = runBootstrap(bootstrap.Options{
		Config:   cfg,
		Reporter: rep,
		Home:     home,
		GOOS:     goos,
		Runner: proc.RealRunner{
			Stdout: out,
			Stderr: cmd.ErrOrStderr(),
			PTY:    terminal.IsTerminalWriter(out),
		},
		HandleSignals: true,
	})
	if err == nil {
		return nil
	}
	var bootErr *bootstrap.Error
	if errors.As(err, &bootErr) {
		rep.Fail(string(bootErr.Kind), bootErr.Err.Error(), bootErr.Hint)
		rep.Info(messages.RootLogFileFmt, logging.LogFilePath())
		return &SilentExitError{Code: 1}
	}
	return err
}
