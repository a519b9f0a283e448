package system

import (
	"fmt"
	"os"

	"github.com/julianstephens/cadence/internal/cli"
	"github.com/julianstephens/cadence/internal/constants"
)

type InitCmd struct {
	Force bool `help:"Delete an existing file store before initializing."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	backend := ctx.Config.Storage.Backend
	path := ctx.Provider.GetConfigPath()

	if c.Force && (backend == constants.BackendJSON || backend == constants.BackendSQLite) {
		if _, err := os.Stat(path); err == nil {
			if err := ctx.Provider.Close(); err != nil {
				return fmt.Errorf("failed to close existing store: %w", err)
			}
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("failed to delete existing store: %w", err)
			}
			ctx.Printf("Deleted existing store at: %s\n", path)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing store: %w", err)
		}
	}

	if err := ctx.Provider.Init(); err != nil {
		return err
	}
	ctx.Printf("Initialized %s storage at: %s\n", backend, path)
	return nil
}
