package e2e

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

type scoreOutput struct {
	Score          int    `json:"score"`
	Grade          string `json:"grade"`
	CompletedCount int    `json:"completed_count"`
	Habits         []struct {
		Name        string `json:"name"`
		Repetitions int    `json:"repetitions"`
	} `json:"habits"`
}

func TestEndToEndWorkflow(t *testing.T) {
	// 1. Locate the binary. Override with CADENCE_BIN_DIR, default ../../bin.
	binDir := os.Getenv("CADENCE_BIN_DIR")
	if binDir == "" {
		binDir = filepath.Join("..", "..", "bin")
	}
	binDir, _ = filepath.Abs(binDir)
	cliPath := filepath.Join(binDir, "cadence")
	if _, err := os.Stat(cliPath); os.IsNotExist(err) {
		t.Skipf("CLI binary not found at %s; build it with 'go build -o bin/cadence ./cmd/cadence'", cliPath)
	}

	// 2. Isolate config, logs and storage in a temp home.
	tempDir := t.TempDir()
	var env []string
	for _, e := range os.Environ() {
		if strings.HasPrefix(e, "HOME=") || strings.HasPrefix(e, "XDG_CONFIG_HOME=") || strings.HasPrefix(e, "CADENCE_") {
			continue
		}
		env = append(env, e)
	}
	storePath := filepath.Join(tempDir, "data", "cadence.json")
	env = append(env,
		fmt.Sprintf("HOME=%s", tempDir),
		fmt.Sprintf("XDG_CONFIG_HOME=%s", tempDir),
		"CADENCE_STORAGE_BACKEND=json",
		fmt.Sprintf("CADENCE_STORAGE_PATH=%s", storePath),
	)

	// 3. Initialize and add habits.
	t.Log("Initializing storage...")
	out := runCmd(t, cliPath, env, "init")
	if !strings.Contains(out, storePath) {
		t.Errorf("init output does not mention the store path: %s", out)
	}

	runCmd(t, cliPath, env, "habit", "add", "Water", "--every", "30m", "--target", "2")
	runCmd(t, cliPath, env, "habit", "add", "Stretch", "--every", "2h", "--duration", "10m")
	runCmd(t, cliPath, env, "habit", "add", "Call bank", "--task")

	list := runCmd(t, cliPath, env, "habit", "list")
	for _, name := range []string{"Water", "Stretch", "Call bank"} {
		if !strings.Contains(list, name) {
			t.Errorf("habit list is missing %q:\n%s", name, list)
		}
	}

	// 4. Complete, time and postpone.
	runCmd(t, cliPath, env, "habit", "done", "Water")
	runCmd(t, cliPath, env, "timer", "start", "Stretch")
	runCmd(t, cliPath, env, "timer", "stop", "Stretch")
	runCmd(t, cliPath, env, "habit", "postpone", "Call bank", "20")

	logOut := runCmd(t, cliPath, env, "log")
	if !strings.Contains(logOut, "Water") || !strings.Contains(logOut, "Call bank") {
		t.Errorf("log is missing entries:\n%s", logOut)
	}

	// 5. Score.
	raw := runCmd(t, cliPath, env, "score", "--json")
	var score scoreOutput
	if err := json.Unmarshal([]byte(raw), &score); err != nil {
		t.Fatalf("score --json is not valid JSON: %v\n%s", err, raw)
	}
	if score.CompletedCount != 2 {
		t.Errorf("completed_count = %d, want 2", score.CompletedCount)
	}
	if len(score.Habits) != 3 {
		t.Errorf("expected 3 habits in the breakdown, got %d", len(score.Habits))
	}

	// 6. Nothing is due yet, so a reminder pass is a no-op.
	remind := runCmd(t, cliPath, env, "remind", "--dry-run")
	if !strings.Contains(remind, "Nothing to remind.") {
		t.Errorf("unexpected remind output: %s", remind)
	}

	// 7. Backups.
	runCmd(t, cliPath, env, "backup", "create")
	backups := runCmd(t, cliPath, env, "backup", "list")
	if !strings.Contains(backups, "cadence-") {
		t.Errorf("backup list is missing the new backup:\n%s", backups)
	}

	// 8. Unknown habits exit with the not-found status.
	cmd := exec.Command(cliPath, "habit", "done", "Nope")
	cmd.Env = env
	if err := cmd.Run(); err == nil {
		t.Error("expected completing an unknown habit to fail")
	} else if exitErr, ok := err.(*exec.ExitError); !ok || exitErr.ExitCode() != 3 {
		t.Errorf("expected exit status 3, got %v", err)
	}
}

func runCmd(t *testing.T, path string, env []string, args ...string) string {
	t.Helper()
	cmd := exec.Command(path, args...)
	cmd.Env = env
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("Command %s %v failed: %v\nOutput: %s", path, args, err, out)
	}
	return string(out)
}
