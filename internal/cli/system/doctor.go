package system

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/cadence/internal/backup"
	"github.com/julianstephens/cadence/internal/cli"
	"github.com/julianstephens/cadence/internal/constants"
	"github.com/julianstephens/cadence/internal/models"
)

// errWarning marks a check that found something worth reporting but not failing on.
var errWarning = errors.New("warning")

type DoctorCmd struct{}

type check struct {
	name    string
	needsDB bool
	run     func(ctx *cli.Context, snap *snapshot) error
}

// snapshot holds the strictly decoded collections. records.Store silently
// treats corrupt collections as empty; doctor must not.
type snapshot struct {
	habits      []models.Habit
	sessions    []models.TimerSession
	completions []models.CompletionRecord
	postpones   []models.PostponeRecord
}

var checks = []check{
	{name: "Collections decode", needsDB: true, run: checkCollections},
	{name: "Unique ids", needsDB: true, run: checkUniqueIDs},
	{name: "Habit integrity", needsDB: true, run: checkHabits},
	{name: "Timer sessions", needsDB: true, run: checkSessions},
	{name: "Record references", needsDB: true, run: checkReferences},
	{name: "Backups present", run: checkBackupsPresent},
	{name: "Clock/timezone", run: checkClockTimezone},
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	hasError := false
	dbReachable := true
	if err := ctx.Provider.Load(); err != nil {
		ctx.Printf("❌ Storage reachable: FAIL\n   Error: %v\n", err)
		hasError = true
		dbReachable = false
	} else {
		ctx.Printf("✓ Storage reachable: OK\n")
	}

	snap := &snapshot{}
	for _, c := range checks {
		if c.needsDB && !dbReachable {
			ctx.Printf("⊘ %s: SKIPPED (storage not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx, snap)
		switch {
		case err == nil:
			ctx.Printf("✓ %s: OK\n", c.name)
		case errors.Is(err, errWarning):
			ctx.Printf("⚠ %s: WARNING\n   %v\n", c.name, err)
		default:
			ctx.Printf("❌ %s: FAIL\n   Error: %v\n", c.name, err)
			hasError = true
			if c.name == "Collections decode" {
				dbReachable = false
			}
		}
	}

	ctx.Println()
	if hasError {
		ctx.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}
	ctx.Println("All diagnostics passed!")
	return nil
}

func decodeStrict[T any](ctx *cli.Context, key string) ([]T, error) {
	data, ok, err := ctx.Provider.Get(key)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok {
		return nil, nil
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%s is corrupt: %w", key, err)
	}
	return items, nil
}

func checkCollections(ctx *cli.Context, snap *snapshot) error {
	var err error
	if snap.habits, err = decodeStrict[models.Habit](ctx, constants.CollectionHabits); err != nil {
		return err
	}
	if snap.sessions, err = decodeStrict[models.TimerSession](ctx, constants.CollectionTimerSessions); err != nil {
		return err
	}
	if snap.completions, err = decodeStrict[models.CompletionRecord](ctx, constants.CollectionCompletions); err != nil {
		return err
	}
	if snap.postpones, err = decodeStrict[models.PostponeRecord](ctx, constants.CollectionPostpones); err != nil {
		return err
	}
	return nil
}

func duplicate(ids []string) string {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return id
		}
		seen[id] = true
	}
	return ""
}

func checkUniqueIDs(_ *cli.Context, snap *snapshot) error {
	collect := func(n int, id func(int) string) []string {
		ids := make([]string, n)
		for i := range ids {
			ids[i] = id(i)
		}
		return ids
	}
	sets := map[string][]string{
		constants.CollectionHabits:        collect(len(snap.habits), func(i int) string { return snap.habits[i].ID }),
		constants.CollectionTimerSessions: collect(len(snap.sessions), func(i int) string { return snap.sessions[i].ID }),
		constants.CollectionCompletions:   collect(len(snap.completions), func(i int) string { return snap.completions[i].ID }),
		constants.CollectionPostpones:     collect(len(snap.postpones), func(i int) string { return snap.postpones[i].ID }),
	}
	for _, key := range collectionKeys {
		if id := duplicate(sets[key]); id != "" {
			return fmt.Errorf("duplicate id %s in %s", id, key)
		}
	}
	return nil
}

func checkHabits(_ *cli.Context, snap *snapshot) error {
	for _, h := range snap.habits {
		switch {
		case h.Name == "":
			return fmt.Errorf("habit %s has an empty name", h.ID)
		case h.Type != models.HabitTypeHabit && h.Type != models.HabitTypeTask:
			return fmt.Errorf("habit %s has unknown type %q", h.ID, h.Type)
		case h.IntervalMinutes < constants.MinIntervalMinutes:
			return fmt.Errorf("habit %s has interval %d", h.ID, h.IntervalMinutes)
		case h.TargetRepetitionsPerDay < constants.MinRepetitionsPerDay:
			return fmt.Errorf("habit %s has repetition target %d", h.ID, h.TargetRepetitionsPerDay)
		case h.DueAt.Before(h.CreatedAt):
			return fmt.Errorf("habit %s is due before it was created", h.ID)
		}
	}
	return nil
}

func checkSessions(_ *cli.Context, snap *snapshot) error {
	perHabit := make(map[string]int)
	for _, s := range snap.sessions {
		perHabit[s.HabitID]++
		if perHabit[s.HabitID] > 1 {
			return fmt.Errorf("habit %s has more than one timer session", s.HabitID)
		}
	}
	return nil
}

// checkReferences reports log records pointing at habits that no longer
// exist. The store does not enforce references, so this is only a warning.
func checkReferences(_ *cli.Context, snap *snapshot) error {
	known := make(map[string]bool, len(snap.habits))
	for _, h := range snap.habits {
		known[h.ID] = true
	}
	orphans := 0
	for _, s := range snap.sessions {
		if !known[s.HabitID] {
			orphans++
		}
	}
	for _, c := range snap.completions {
		if !known[c.HabitID] {
			orphans++
		}
	}
	for _, p := range snap.postpones {
		if !known[p.HabitID] {
			orphans++
		}
	}
	if orphans > 0 {
		return fmt.Errorf("%w: %d records reference unknown habits", errWarning, orphans)
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context, _ *snapshot) error {
	mgr, err := backup.NewManager(ctx.Provider.GetConfigPath(), ctx.Config.Storage.Backend)
	if err != nil {
		return nil
	}
	backups, err := mgr.ListBackups()
	if err != nil {
		return fmt.Errorf("%w: failed to list backups: %v", errWarning, err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("%w: no backups found in %s", errWarning, mgr.GetBackupDir())
	}
	return nil
}

func checkClockTimezone(_ *cli.Context, _ *snapshot) error {
	now := time.Now()
	if now.Year() < 2020 {
		return fmt.Errorf("system clock looks wrong: %s", now.Format(time.RFC3339))
	}
	if name, _ := now.Zone(); name == "" {
		return fmt.Errorf("local timezone has no name")
	}
	return nil
}
