package system

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/julianstephens/cadence/internal/cli"
	"github.com/julianstephens/cadence/internal/constants"
)

var collectionKeys = []string{
	constants.CollectionHabits,
	constants.CollectionTimerSessions,
	constants.CollectionCompletions,
	constants.CollectionPostpones,
}

type InspectCmd struct {
	Path InspectPathCmd `cmd:"" help:"Show the storage location."`
	Dump InspectDumpCmd `cmd:"" help:"Dump a raw collection as JSON."`
}

type InspectPathCmd struct{}

func (cmd *InspectPathCmd) Run(ctx *cli.Context) error {
	output := map[string]string{
		"backend": ctx.Config.Storage.Backend,
		"path":    ctx.Provider.GetConfigPath(),
	}

	jsonBytes, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	ctx.Println(string(jsonBytes))
	return nil
}

type InspectDumpCmd struct {
	Collection string `arg:"" help:"Collection to dump: habits, timer_sessions, completions or postpones."`
}

func (cmd *InspectDumpCmd) Run(ctx *cli.Context) error {
	known := false
	for _, key := range collectionKeys {
		if key == cmd.Collection {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown collection %q (expected one of %s)", cmd.Collection, strings.Join(collectionKeys, ", "))
	}

	data, ok, err := ctx.Provider.Get(cmd.Collection)
	if err != nil {
		return fmt.Errorf("failed to read collection: %w", err)
	}
	if !ok {
		ctx.Println("[]")
		return nil
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("collection %s is corrupt: %w", cmd.Collection, err)
	}
	jsonBytes, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal collection: %w", err)
	}
	ctx.Println(string(jsonBytes))
	return nil
}
