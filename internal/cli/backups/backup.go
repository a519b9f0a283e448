package backups

import (
	"bufio"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/julianstephens/cadence/internal/backup"
	"github.com/julianstephens/cadence/internal/cli"
	"github.com/julianstephens/cadence/internal/constants"
	"github.com/julianstephens/cadence/internal/logger"
)

func newManager(ctx *cli.Context) (*backup.Manager, error) {
	return backup.NewManager(ctx.Provider.GetConfigPath(), ctx.Config.Storage.Backend)
}

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(ctx *cli.Context) error {
	mgr, err := newManager(ctx)
	if err != nil {
		return err
	}
	backupPath, err := mgr.CreateBackup()
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}

	ctx.Printf("✓ Backup created: %s\n", filepath.Base(backupPath))
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *cli.Context) error {
	mgr, err := newManager(ctx)
	if err != nil {
		return err
	}
	backups, err := mgr.ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	if len(backups) == 0 {
		ctx.Println("No backups found.")
		ctx.Printf("Backups are stored in: %s\n", mgr.GetBackupDir())
		return nil
	}

	ctx.Println(cli.HeaderStyle.Render(fmt.Sprintf("Backups (%d total, keeping most recent %d)", len(backups), constants.MaxBackups)))
	t := table.New().Headers("CREATED", "", "FILE", "SIZE")
	for _, b := range backups {
		t.Row(
			b.Timestamp.Format("2006-01-02 15:04:05"),
			cli.MutedStyle.Render(humanize.Time(b.Timestamp)),
			filepath.Base(b.Path),
			humanize.Bytes(uint64(b.Size)),
		)
	}
	ctx.Println(t.Render())
	ctx.Printf("Backup directory: %s\n", mgr.GetBackupDir())
	return nil
}

type BackupRestoreCmd struct {
	BackupFile string `arg:"" help:"Path or file name of the backup to restore."`
	Yes        bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *BackupRestoreCmd) Run(ctx *cli.Context) error {
	mgr, err := newManager(ctx)
	if err != nil {
		return err
	}
	backupPath, err := mgr.ResolvePath(c.BackupFile)
	if err != nil {
		return err
	}

	if !c.Yes {
		ctx.Println(cli.WarningStyle.Render("WARNING: this replaces your current store with the backup."))
		ctx.Println("Stop any running 'cadence remind --watch' before restoring.")
		ctx.Println("A backup of the current store is taken first.")
		ctx.Printf("\nRestore from: %s\n", backupPath)
		ctx.Printf("Continue? [y/N]: ")

		response, err := bufio.NewReader(ctx.In).ReadString('\n')
		if err != nil && response == "" {
			ctx.Println()
			ctx.Println("Restore cancelled.")
			return nil
		}
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			ctx.Println("Restore cancelled.")
			return nil
		}
	}

	if err := ctx.Provider.Close(); err != nil {
		logger.Warn("Failed to close store before restore", "error", err)
	}

	safety, err := mgr.RestoreBackup(backupPath)
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}

	ctx.Println(cli.SuccessStyle.Render("✓ Store restored from " + filepath.Base(backupPath)))
	if safety != "" {
		ctx.Printf("Previous store saved as: %s\n", filepath.Base(safety))
	}
	return nil
}
