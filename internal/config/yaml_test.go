package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestLoadAgentRoster_MissingFileIsEmptyNotError(t *testing.T) {
	cfg, err := LoadAgentRoster(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Agents) != 0 {
		t.Errorf("expected empty roster, got %+v", cfg.Agents)
	}
}

func TestLoadAgentRoster_ParsesToggles(t *testing.T) {
	path := writeTemp(t, "roster.yaml", `
agents:
  - name: symbol-contractor
    enabled: true
  - name: recon-specialist
    enabled: false
`)
	cfg, err := LoadAgentRoster(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Agents) != 2 {
		t.Fatalf("expected 2 roster entries, got %d", len(cfg.Agents))
	}
	if cfg.Agents[0].Name != "symbol-contractor" || !cfg.Agents[0].Enabled {
		t.Errorf("unexpected first entry: %+v", cfg.Agents[0])
	}
	if cfg.Agents[1].Enabled {
		t.Errorf("expected recon-specialist disabled")
	}
}

func TestLoadQuickActionCatalog_ParsesSteps(t *testing.T) {
	path := writeTemp(t, "actions.yaml", `
actions:
  - id: qa-1
    name: "Commit checkpoint"
    description: "stage and commit the working tree"
    steps:
      - tool: vcs_commit
        parameter_template:
          message: "checkpoint"
`)
	cfg, err := LoadQuickActionCatalog(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Actions) != 1 {
		t.Fatalf("expected 1 action, got %d", len(cfg.Actions))
	}
	if cfg.Actions[0].ID != "qa-1" || len(cfg.Actions[0].Steps) != 1 {
		t.Errorf("unexpected action: %+v", cfg.Actions[0])
	}
	if cfg.Actions[0].Steps[0].Tool != "vcs_commit" {
		t.Errorf("unexpected step tool: %q", cfg.Actions[0].Steps[0].Tool)
	}
}

func TestLoadNotificationRouting_MissingFileDisablesEverything(t *testing.T) {
	cfg, err := LoadNotificationRouting(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Slack.Enabled || cfg.Discord.Enabled || cfg.Email.Enabled {
		t.Errorf("expected all channels disabled by default, got %+v", cfg)
	}
}

func TestLoadNotificationRouting_ParsesChannels(t *testing.T) {
	path := writeTemp(t, "notifications.yaml", `
slack:
  enabled: true
  webhook_url: "https://hooks.slack.example/abc"
  channel: "#devcoach"
  min_priority: high
discord:
  enabled: false
email:
  enabled: true
  smtp_host: smtp.example.com
  smtp_port: 587
  to: ["dev@example.com"]
  min_priority: critical
`)
	cfg, err := LoadNotificationRouting(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.Slack.Enabled || cfg.Slack.Channel != "#devcoach" {
		t.Errorf("unexpected slack config: %+v", cfg.Slack)
	}
	if cfg.Discord.Enabled {
		t.Errorf("expected discord disabled")
	}
	if !cfg.Email.Enabled || cfg.Email.SMTPPort != 587 || len(cfg.Email.To) != 1 {
		t.Errorf("unexpected email config: %+v", cfg.Email)
	}
}

func TestParsePriority_DefaultsToLow(t *testing.T) {
	if ParsePriority("bogus").String() != "low" {
		t.Errorf("expected unrecognized priority to default to low")
	}
	if ParsePriority("critical").String() != "critical" {
		t.Errorf("expected critical to round-trip")
	}
}
