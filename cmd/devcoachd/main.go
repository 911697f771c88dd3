// Command devcoachd runs the coordination server: the persistent
// store, the realtime bus, tool dispatch, notification fan-out, and
// the companion health endpoint. The stdio bridge that talks to an
// assistant process lives in cmd/devcoach-adapter.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/DEVCOACH/internal/agent"
	"github.com/DEVCOACH/internal/bus"
	"github.com/DEVCOACH/internal/config"
	"github.com/DEVCOACH/internal/ctxmon"
	"github.com/DEVCOACH/internal/docs"
	"github.com/DEVCOACH/internal/health"
	"github.com/DEVCOACH/internal/notifications"
	"github.com/DEVCOACH/internal/notifications/external"
	"github.com/DEVCOACH/internal/observable"
	"github.com/DEVCOACH/internal/project"
	"github.com/DEVCOACH/internal/reality"
	"github.com/DEVCOACH/internal/session"
	"github.com/DEVCOACH/internal/store"
	"github.com/DEVCOACH/internal/tools"
	"github.com/DEVCOACH/internal/vcs"
)

func main() {
	cfg, err := config.Load(flag.NewFlagSet("devcoachd", flag.ExitOnError), os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if cfg.LogFile != "" {
		logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer logFile.Close()
		log.SetOutput(io.MultiWriter(os.Stderr, logFile))
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create data directory: %v\n", err)
		os.Exit(1)
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer st.DB().Close()

	obs := observable.New()
	git := vcs.New(cfg.DataDir)

	dockEngine := docs.New(st, obs, cfg.DataDir)
	sessions := session.New(st, obs, git, dockEngine, nil)
	ctxMonitor := ctxmon.New(st, obs)
	testRunner := &reality.CommandTestRunner{Dir: cfg.DataDir, Argv: []string{"go", "test", "./..."}}
	realityChecker := reality.New(st, obs, git, testRunner, cfg.DataDir)
	projectTracker := project.New(st, obs)

	orchestrator := agent.New(st, obs)
	registerRoster(orchestrator, st, filepath.Join(cfg.DataDir, "agent_roster.yaml"))

	// theBus is assigned below, once the registry it depends on exists;
	// the bus health check closes over the variable rather than a value
	// so it still observes the real bus once construction finishes.
	var theBus *bus.Bus
	checker := health.New(cfg.DataDir, st.DB(), func() error {
		if theBus == nil {
			return fmt.Errorf("bus not yet started")
		}
		return nil
	}, nil)

	registry := tools.Build(tools.Components{
		Store:    st,
		Sessions: sessions,
		Context:  ctxMonitor,
		Reality:  realityChecker,
		Docs:     dockEngine,
		Project:  projectTracker,
		Agents:   orchestrator,
		Health:   checker,
	})
	sessions.SetToolExecutor(registry)

	theBus = bus.New(obs, registry, cfg.AuthToken)

	router := buildNotificationRouter(filepath.Join(cfg.DataDir, "notifications.yaml"))
	done := make(chan struct{})
	notifications.BridgeToRouter(obs, router, done)

	seedQuickActions(st, filepath.Join(cfg.DataDir, "quick_actions.yaml"))

	r := mux.NewRouter()
	r.Handle("/health", checker).Methods(http.MethodGet)
	r.Handle("/ws", theBus).Methods(http.MethodGet)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.MainHost, cfg.MainPort),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	healthRouter := mux.NewRouter()
	healthRouter.Handle("/health", checker).Methods(http.MethodGet)
	healthServer := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.MainHost, cfg.HealthPort), Handler: healthRouter}

	serverErr := make(chan error, 2)
	go func() {
		log.Printf("[DEVCOACHD] listening on %s", httpServer.Addr)
		serverErr <- httpServer.ListenAndServe()
	}()
	go func() {
		log.Printf("[DEVCOACHD] health endpoint on %s", healthServer.Addr)
		serverErr <- healthServer.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "server error: %v\n", err)
			os.Exit(1)
		}
	case <-shutdown:
		log.Println("[DEVCOACHD] shutting down")
		close(done)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			log.Printf("[DEVCOACHD] graceful shutdown failed: %v", err)
		}
		if err := healthServer.Shutdown(ctx); err != nil {
			log.Printf("[DEVCOACHD] health endpoint shutdown failed: %v", err)
		}
	}
}

// registerRoster registers every compiled-in agent, applying the
// optional enabled/disabled overrides from an agent roster file.
func registerRoster(o *agent.Orchestrator, st *store.Store, rosterPath string) {
	roster, err := config.LoadAgentRoster(rosterPath)
	if err != nil {
		log.Printf("[AGENT] failed to load agent roster: %v", err)
		roster = &config.AgentRosterConfig{}
	}

	agents := []agent.Agent{
		agent.NewSymbolContractor(st),
		agent.NewSessionOrchestrator(),
		agent.NewContextGuardian(st),
	}
	for _, a := range agents {
		if err := o.Register(a); err != nil {
			log.Printf("[AGENT] failed to register %s: %v", a.Name(), err)
			continue
		}
	}
	for _, toggle := range roster.Agents {
		if err := o.Toggle(toggle.Name, toggle.Enabled); err != nil {
			log.Printf("[AGENT] failed to apply roster toggle for %s: %v", toggle.Name, err)
		}
	}
}

// seedQuickActions loads the quick action catalog, if any, into the
// store. Missing catalog files are not fatal — the feature simply
// stays empty until one is supplied.
func seedQuickActions(st *store.Store, path string) {
	catalog, err := config.LoadQuickActionCatalog(path)
	if err != nil {
		log.Printf("[QUICKACTION] failed to load catalog: %v", err)
		return
	}
	for i := range catalog.Actions {
		if err := st.SeedQuickAction(&catalog.Actions[i]); err != nil {
			log.Printf("[QUICKACTION] failed to seed %s: %v", catalog.Actions[i].ID, err)
		}
	}
}

// buildNotificationRouter assembles a Router from the notification
// routing config, always including the local terminal/banner channel
// and adding Slack/Discord/email channels only when enabled.
func buildNotificationRouter(path string) *notifications.Router {
	router := notifications.NewRouter([]notifications.NotificationChannel{notifications.NewLocalNotifier()})

	routing, err := config.LoadNotificationRouting(path)
	if err != nil {
		log.Printf("[NOTIFY] failed to load routing config: %v", err)
		return router
	}

	if routing.Slack.Enabled && routing.Slack.WebhookURL != "" {
		router.AddChannel(external.NewSlackNotifier(external.SlackConfig{
			WebhookURL:  routing.Slack.WebhookURL,
			Channel:     routing.Slack.Channel,
			Username:    routing.Slack.Username,
			IconEmoji:   routing.Slack.IconEmoji,
			MinPriority: config.ParsePriority(routing.Slack.MinPriority),
		}))
		log.Println("[NOTIFY] slack channel enabled")
	}
	if routing.Discord.Enabled && routing.Discord.WebhookURL != "" {
		router.AddChannel(external.NewDiscordNotifier(external.DiscordConfig{
			WebhookURL:  routing.Discord.WebhookURL,
			Username:    routing.Discord.Username,
			AvatarURL:   routing.Discord.AvatarURL,
			MinPriority: config.ParsePriority(routing.Discord.MinPriority),
		}))
		log.Println("[NOTIFY] discord channel enabled")
	}
	if routing.Email.Enabled && routing.Email.SMTPHost != "" {
		router.AddChannel(external.NewEmailNotifier(external.EmailConfig{
			SMTPHost:    routing.Email.SMTPHost,
			SMTPPort:    routing.Email.SMTPPort,
			Username:    routing.Email.Username,
			Password:    routing.Email.Password,
			From:        routing.Email.From,
			To:          routing.Email.To,
			MinPriority: config.ParsePriority(routing.Email.MinPriority),
		}))
		log.Println("[NOTIFY] email channel enabled")
	}

	log.Printf("[NOTIFY] router initialized with %d channels", len(router.GetChannels()))
	return router
}
