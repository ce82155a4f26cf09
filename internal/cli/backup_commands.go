package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBackupCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Manage backups of the router configuration",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List backups, newest first",
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				backup, err := a.backup()
				if err != nil {
					return err
				}
				entries, err := backup.ListBackups()
				if err != nil {
					return err
				}

				if len(entries) == 0 {
					a.printer.Info("No backups yet")
					return nil
				}
				for _, e := range entries {
					a.printer.Entry(e.Name, fmt.Sprintf("%s  %d bytes", e.CapturedAt.Local().Format("2006-01-02 15:04:05"), e.Size), false)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "create",
			Short: "Back up the current router configuration",
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				backup, err := a.backup()
				if err != nil {
					return err
				}
				name, err := backup.CreateBackup()
				if err != nil {
					return err
				}
				a.printer.Success(fmt.Sprintf("Created backup %s", name))
				return nil
			},
		},
		&cobra.Command{
			Use:   "restore <backup>",
			Short: "Replace the router configuration with a backup",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				backup, err := a.backup()
				if err != nil {
					return err
				}
				safety, err := backup.Restore(args[0])
				if err != nil {
					return err
				}
				a.printer.Success(fmt.Sprintf("Restored %s", args[0]))
				if safety != "" {
					a.printer.Field("Previous configuration saved as", safety)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:     "delete <backup>",
			Aliases: []string{"rm"},
			Short:   "Delete one backup",
			Args:    cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				backup, err := a.backup()
				if err != nil {
					return err
				}
				if err := backup.Delete(args[0]); err != nil {
					return err
				}
				a.printer.Success(fmt.Sprintf("Deleted %s", args[0]))
				return nil
			},
		},
		newBackupCleanupCommand(a),
		&cobra.Command{
			Use:   "diff <backup>",
			Short: "Show the changes from a backup to the current router configuration",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				backup, err := a.backup()
				if err != nil {
					return err
				}
				diff, err := backup.Diff(args[0])
				if err != nil {
					return err
				}
				a.printer.CodeBlock(diff, "diff")
				return nil
			},
		},
	)
	return cmd
}

func newBackupCleanupCommand(a *app) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete all but the newest backups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			backup, err := a.backup()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("keep") {
				keep = a.settings.BackupKeep()
			}

			removed, err := backup.Cleanup(keep)
			if err != nil {
				return err
			}
			a.printer.Success(fmt.Sprintf("Removed %d backups, kept at most %d", removed, keep))
			return nil
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 0, "Number of backups to keep [default: backup.keep setting]")
	return cmd
}
