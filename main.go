package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "orbit/app/configs"
	"orbit/app/core/dispatch"
	"orbit/app/core/habits"
	"orbit/app/core/interaction/cli"
	"orbit/app/core/interaction/gateway"
	orbithttp "orbit/app/core/interaction/http"
	"orbit/app/core/llm"
	"orbit/app/core/mood"
	"orbit/app/core/orchestrator"
	"orbit/app/core/persona"
	"orbit/app/core/reconcile"
	"orbit/app/core/scheduler"
	"orbit/app/core/seed"
	"orbit/app/core/task"
	"orbit/app/pkg/logger"
)

func main() {
	if err := logger.Init("output/logs"); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	logger.Info("Orbit starting...")

	cfgManager, err := config.NewManager(config.DefaultPath())
	if err != nil {
		logger.Error("Failed to load config: %v", err)
		os.Exit(1)
	}
	cfg := cfgManager.Get()

	store := task.NewStore()
	moods := mood.NewLog()
	sessions := persona.NewSessions(buildPersonas(cfg))
	habitModel := habits.NewModel()
	reconciler := reconcile.NewReconciler(store)

	if cfg.SeedDemo {
		seed.Apply(store, moods, time.Now())
	}

	var generator llm.Generator
	if gen, err := llm.NewOpenAIGenerator(cfg.Model); err != nil {
		if errors.Is(err, llm.ErrMissingAPIKey) {
			logger.Info("No model credential found, conversations run in offline mode")
		} else {
			logger.Error("Failed to build generator: %v", err)
			os.Exit(1)
		}
	} else {
		generator = gen
	}

	orch := orchestrator.New(orchestrator.Options{
		Sessions:   sessions,
		Store:      store,
		Moods:      moods,
		Habits:     habitModel,
		Reconciler: reconciler,
		Generator:  generator,
		User:       cfg.User,
		MoodWindow: cfg.Task.MoodWindow,
		Timeout:    time.Duration(cfg.Model.GenerationTimeoutSec) * time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dispatcher := dispatch.New(sessions.IDs(), 16)
	if err := dispatcher.Start(ctx); err != nil {
		logger.Error("Failed to start dispatcher: %v", err)
		os.Exit(1)
	}
	defer func() {
		if err := dispatcher.Stop(3 * time.Second); err != nil {
			logger.Error("Dispatcher shutdown timeout: %v", err)
		}
	}()

	gw := gateway.New(orch, dispatcher)

	cliChannel := cli.NewChannel(sessions)
	gw.Register(cliChannel)
	store.SetCompletionHook(func(done task.Task) {
		cliChannel.Notify(fmt.Sprintf("Stardust collected. (%s)", done.Title))
	})

	jobScheduler := scheduler.New()
	err = jobScheduler.Register(scheduler.Job{
		Name:       "overdue-sweep",
		Interval:   time.Duration(cfg.Task.SweepIntervalSec) * time.Second,
		Timeout:    10 * time.Second,
		RunOnStart: true,
		Run: func(context.Context) error {
			swept := store.SweepOverdue(time.Now())
			if len(swept) > 0 {
				logger.Info("[Sweep] flagged %d overdue task(s) for reschedule", len(swept))
			}
			return nil
		},
	})
	if err != nil {
		logger.Error("Failed to register sweep job: %v", err)
		os.Exit(1)
	}

	httpChannel := orbithttp.NewChannel(orbithttp.Options{
		Port:         cfg.Server.HTTPPort,
		Store:        store,
		Moods:        moods,
		Sessions:     sessions,
		Habits:       habitModel,
		Orchestrator: orch,
	})
	runtimeStatus := func() map[string]interface{} {
		return map[string]interface{}{
			"gateway":  gw.Health(),
			"jobs":     jobScheduler.Snapshot(),
			"dispatch": dispatcher.Stats(),
		}
	}
	httpChannel.SetStatusProvider(runtimeStatus)
	orch.SetStatusProvider(runtimeStatus)
	gw.Register(httpChannel)

	if err := jobScheduler.Start(ctx); err != nil {
		logger.Error("Failed to start scheduler: %v", err)
		os.Exit(1)
	}
	defer func() {
		if err := jobScheduler.Stop(3 * time.Second); err != nil {
			logger.Error("Scheduler shutdown timeout: %v", err)
		}
	}()

	go func() {
		if err := gw.Start(ctx); err != nil {
			logger.Error("Gateway crashed: %v", err)
			os.Exit(1)
		}
	}()

	logger.Info("Orbit is ready.")
	fmt.Println("- CLI Interface:  Interactive")
	fmt.Printf("- HTTP Interface: http://localhost:%d/api/message (POST)\n", cfg.Server.HTTPPort)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("Received signal: %v. Orbit shutting down...", sig)
	cancel()
}

// buildPersonas overlays config overrides onto the built-in personas.
func buildPersonas(cfg config.Config) []persona.Persona {
	personas := persona.Defaults()
	for _, override := range cfg.Personas {
		id := persona.NormalizeID(override.ID)
		for i := range personas {
			if personas[i].ID != id {
				continue
			}
			if override.Name != "" {
				personas[i].Name = override.Name
			}
			if override.Description != "" {
				personas[i].Description = override.Description
			}
			if override.SystemInstruction != "" {
				personas[i].SystemInstruction = override.SystemInstruction
			}
		}
	}
	return personas
}
