package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gary-dev/gary-install/internal/archive"
	"github.com/gary-dev/gary-install/internal/messages"
	"github.com/gary-dev/gary-install/internal/report"
)

var listBackups = archive.ListBackups

func newBackupsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   messages.BackupsUse,
		Short: messages.BackupsShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			rep := report.New(out)
			cfg, _, err := resolveConfig(flags, rep)
			if err != nil {
				return err
			}
			target := cfg.Layout(goos).InstallDir
			backups, err := listBackups(nil, target)
			if err != nil {
				return err
			}
			if len(backups) == 0 {
				_, _ = fmt.Fprintf(out, messages.BackupsNoneFmt, target)
				return nil
			}
			for _, b := range backups {
				_, _ = fmt.Fprintf(out, messages.BackupsLineFmt, b.Created.Format(messages.BackupsTimeLayout), b.Path)
			}
			_, _ = fmt.Fprintf(out, messages.BackupsRestoreFmt, target, backups[0].Path)
			return nil
		},
	}
}
