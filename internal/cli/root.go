package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/julianstephens/cadence/internal/backup"
	"github.com/julianstephens/cadence/internal/config"
	"github.com/julianstephens/cadence/internal/engine"
	apperrors "github.com/julianstephens/cadence/internal/errors"
	"github.com/julianstephens/cadence/internal/logger"
	"github.com/julianstephens/cadence/internal/models"
	"github.com/julianstephens/cadence/internal/records"
	"github.com/julianstephens/cadence/internal/scoring"
	"github.com/julianstephens/cadence/internal/storage"
)

// minIDPrefix is the shortest id prefix accepted in place of a full id.
const minIDPrefix = 4

type Context struct {
	Config   *config.Config
	Provider storage.Provider
	Store    *records.Store
	Engine   *engine.Engine
	Scorer   *scoring.Scorer

	Out io.Writer
	In  io.Reader
}

// NewContext wires the record store and both engines on top of provider.
func NewContext(cfg *config.Config, provider storage.Provider, opts ...engine.Option) *Context {
	store := records.New(provider)
	return &Context{
		Config:   cfg,
		Provider: provider,
		Store:    store,
		Engine:   engine.New(store, opts...),
		Scorer:   scoring.New(store),
		Out:      os.Stdout,
		In:       os.Stdin,
	}
}

func (c *Context) Printf(format string, args ...interface{}) {
	fmt.Fprintf(c.Out, format, args...)
}

func (c *Context) Println(args ...interface{}) {
	fmt.Fprintln(c.Out, args...)
}

// ResolveHabit finds a habit by full id, unique id prefix, or case-insensitive
// name.
func (c *Context) ResolveHabit(ref string, includeArchived bool) (models.Habit, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return models.Habit{}, apperrors.InvalidInput("habit reference must not be empty")
	}

	habits, err := c.Store.ListHabits(includeArchived)
	if err != nil {
		return models.Habit{}, err
	}

	var byPrefix, byName []models.Habit
	for _, h := range habits {
		if h.ID == ref {
			return h, nil
		}
		if len(ref) >= minIDPrefix && strings.HasPrefix(h.ID, ref) {
			byPrefix = append(byPrefix, h)
		}
		if strings.EqualFold(h.Name, ref) {
			byName = append(byName, h)
		}
	}

	for _, matches := range [][]models.Habit{byPrefix, byName} {
		switch len(matches) {
		case 0:
			continue
		case 1:
			return matches[0], nil
		default:
			return models.Habit{}, apperrors.InvalidInput("%q matches %d habits, use the id instead", ref, len(matches))
		}
	}
	return models.Habit{}, apperrors.NotFound("habit", ref)
}

// PerformAutomaticBackup snapshots file-backed stores and only logs failures.
func (c *Context) PerformAutomaticBackup() {
	if c.Config == nil {
		return
	}
	mgr, err := backup.NewManager(c.Provider.GetConfigPath(), c.Config.Storage.Backend)
	if err != nil {
		logger.Debug("Skipping automatic backup", "reason", err)
		return
	}
	if _, err := mgr.CreateBackup(); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// ShortID returns the display form of an id.
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
