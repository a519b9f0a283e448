package main

import (
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/cadence/internal/cli"
	"github.com/julianstephens/cadence/internal/cli/backups"
	"github.com/julianstephens/cadence/internal/cli/habits"
	"github.com/julianstephens/cadence/internal/cli/system"
	"github.com/julianstephens/cadence/internal/config"
	"github.com/julianstephens/cadence/internal/constants"
	apperrors "github.com/julianstephens/cadence/internal/errors"
	"github.com/julianstephens/cadence/internal/logger"
	"github.com/julianstephens/cadence/internal/storage"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Config file path." type:"path" default:"~/.config/cadence/config.yaml"`
	Debug   bool   `help:"Log debug output to stderr."`

	Init    system.InitCmd    `cmd:"" help:"Initialize cadence storage."`
	Habit   habits.HabitCmd   `cmd:"" help:"Manage habits and tasks."`
	Timer   habits.TimerCmd   `cmd:"" help:"Track time spent on a habit."`
	Log     habits.LogCmd     `cmd:"" help:"Show today's completions and postpones."`
	Score   habits.ScoreCmd   `cmd:"" help:"Show today's score."`
	Remind  system.RemindCmd  `cmd:"" help:"Send a reminder for the most overdue habit."`
	Keyring system.KeyringCmd `cmd:"" help:"Manage the PostgreSQL connection string in the OS keyring."`
	Inspect system.InspectCmd `cmd:"" help:"Inspect raw storage."`
	Doctor  system.DoctorCmd  `cmd:"" help:"Check storage health and record integrity."`
	Backup  struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a backup now." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore the store from a backup."`
	} `cmd:"" help:"Manage backups of file stores."`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Habit and task due-time tracker with daily scoring"),
		kong.UsageOnError(),
		kong.Vars{"version": constants.Version},
	)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		apperrors.Fatal(err)
	}
	if CLI.Debug {
		cfg.Log.Debug = true
	}

	if err := logger.Init(logger.Config{Debug: cfg.Log.Debug, LogDir: cfg.Log.Dir}); err != nil {
		logger.InitWriter(os.Stderr, cfg.Log.Debug)
		logger.Warn("Failed to initialize file logging", "error", err)
	}

	command := kctx.Command()

	// Keyring commands manage the credentials storage.Open would need.
	var provider storage.Provider
	if strings.HasPrefix(command, "keyring") {
		provider = storage.NewMemoryStore()
	} else {
		provider, err = storage.Open(cfg.Storage)
		if err != nil {
			apperrors.Fatal(err)
		}
		if !strings.HasPrefix(command, "init") {
			if err := provider.Load(); err != nil {
				apperrors.Fatal(err)
			}
		}
	}

	appCtx := cli.NewContext(cfg, provider)
	err = kctx.Run(appCtx)
	if closeErr := provider.Close(); closeErr != nil {
		logger.Warn("Failed to close storage", "error", closeErr)
	}
	apperrors.Fatal(err)
}
