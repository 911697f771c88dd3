package reality

import (
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
)

var (
	passingRe = regexp.MustCompile(`(\d+)\s+passing`)
	failingRe = regexp.MustCompile(`(\d+)\s+failing`)
)

// CommandTestRunner runs a configured shell command and parses "N passing"
// / "N failing" out of its combined output — the generic contract the
// teacher's own test-status parsing follows for external tool output.
type CommandTestRunner struct {
	Dir  string
	Argv []string
}

// Run implements TestRunner.
func (r *CommandTestRunner) Run() (passing, failing int, err error) {
	if len(r.Argv) == 0 {
		return 0, 0, fmt.Errorf("no test command configured")
	}
	cmd := exec.Command(r.Argv[0], r.Argv[1:]...)
	cmd.Dir = r.Dir
	out, runErr := cmd.CombinedOutput()

	if m := passingRe.FindSubmatch(out); m != nil {
		passing, _ = strconv.Atoi(string(m[1]))
	}
	if m := failingRe.FindSubmatch(out); m != nil {
		failing, _ = strconv.Atoi(string(m[1]))
	}

	// A non-zero exit with no parseable failure count still means the run
	// itself could not be trusted.
	if runErr != nil && failing == 0 && passing == 0 {
		return 0, 0, fmt.Errorf("test command failed: %w: %s", runErr, out)
	}
	return passing, failing, nil
}
