package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/evahub/eva-gateway/internal/assistant"
	"github.com/evahub/eva-gateway/internal/briefing"
	"github.com/evahub/eva-gateway/internal/calendar"
	"github.com/evahub/eva-gateway/internal/channel"
	"github.com/evahub/eva-gateway/internal/channel/discord"
	"github.com/evahub/eva-gateway/internal/channel/telegram"
	"github.com/evahub/eva-gateway/internal/channel/webchat"
	"github.com/evahub/eva-gateway/internal/command"
	"github.com/evahub/eva-gateway/internal/config"
	"github.com/evahub/eva-gateway/internal/habits"
	"github.com/evahub/eva-gateway/internal/healthring"
	"github.com/evahub/eva-gateway/internal/learning"
	"github.com/evahub/eva-gateway/internal/llm"
	"github.com/evahub/eva-gateway/internal/logging"
	"github.com/evahub/eva-gateway/internal/memory"
	"github.com/evahub/eva-gateway/internal/mood"
	"github.com/evahub/eva-gateway/internal/notify"
	"github.com/evahub/eva-gateway/internal/onboarding"
	"github.com/evahub/eva-gateway/internal/profile"
	"github.com/evahub/eva-gateway/internal/scheduler"
	"github.com/evahub/eva-gateway/internal/server"
	"github.com/evahub/eva-gateway/internal/smarthome"
	"github.com/evahub/eva-gateway/internal/store"
	"github.com/evahub/eva-gateway/internal/tts"
	"github.com/evahub/eva-gateway/internal/tui"
	"github.com/evahub/eva-gateway/internal/weather"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	tuiFlag := flag.Bool("tui", false, "run the terminal chat client instead of the gateway")
	gatewayURL := flag.String("gateway", "http://localhost:18800", "gateway URL for the TUI client")
	userFlag := flag.String("user", "default", "user id for the TUI client")
	flag.Parse()

	if *tuiFlag {
		if err := tui.Run(*gatewayURL, *userFlag); err != nil {
			logging.WithComponent("main").Error("TUI exited with error", "error", err)
			os.Exit(1)
		}
		return
	}

	logger := logging.WithComponent("main")
	logger.Info("Starting EVA Gateway", "version", version)

	// First run: drop a commented starter config next to the binary.
	o := onboarding.New(*configPath)
	if o.IsNeeded() {
		logger.Info("No config found, writing default", "path", *configPath)
		if err := o.WriteDefaultConfig(); err != nil {
			logger.Error("Failed to write default config", "error", err)
			os.Exit(1)
		}
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb, err := store.NewClient(cfg.Redis)
	if err != nil {
		logger.Error("Redis connection failed", "error", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// Storage-backed subsystems.
	notes := store.NewNotes(rdb)
	moods := mood.NewTracker(rdb)
	habitTracker := habits.NewTracker(rdb)
	learn := learning.NewModule(rdb)
	profiles := profile.NewManager(rdb)
	mem := memory.NewStore(rdb)

	// External integrations.
	weatherSvc := weather.NewService(cfg.Weather)
	calendarClient := calendar.NewClient(cfg.Calendar)
	speech := tts.NewClient(cfg.TTS)

	home := smarthome.NewRegistry()
	var homeAssistant *smarthome.HomeAssistant
	if cfg.SmartHome.HomeAssistant.Enabled {
		homeAssistant = smarthome.NewHomeAssistant(cfg.SmartHome.HomeAssistant)
		if err := homeAssistant.Connect(ctx); err != nil {
			logger.Error("Home Assistant connection failed", "error", err)
		}
		home.Register(homeAssistant)
	}
	if cfg.SmartHome.MQTT.Enabled {
		mqtt := smarthome.NewMQTT(cfg.SmartHome.MQTT)
		if err := mqtt.Connect(ctx); err != nil {
			logger.Error("MQTT connection failed", "error", err)
		}
		home.Register(mqtt)
	}

	// LLM pipeline.
	router, err := llm.NewRouter(cfg.LLM)
	if err != nil {
		logger.Error("Failed to create LLM router", "error", err)
		os.Exit(1)
	}
	for name, err := range router.Health(ctx) {
		if err != nil {
			logger.Error("LLM provider unavailable", "provider", name, "error", err)
		} else {
			logger.Info("LLM provider OK", "provider", name)
		}
	}
	llmService := llm.NewService(router, cfg.Assistant, cfg.LLM, learn)

	// Proactive side.
	publisher := notify.NewPublisher(rdb)
	sched := scheduler.New(cfg.Scheduler, publisher, profiles, llmService)

	briefingGen := briefing.NewGenerator(weatherSvc, calendarClient, notes, habitTracker)

	executor := command.NewExecutor(command.Deps{
		Scheduler: sched,
		Home:      home,
		Weather:   weatherSvc,
		Notes:     notes,
		Mood:      moods,
		Calendar:  calendarClient,
		Briefing:  briefingGen,
		Habits:    habitTracker,
		Learning:  learn,
	})

	eva := assistant.New(command.NewParser(), executor, mem, profiles, llmService, speech, learn)

	// Channels.
	webchatAdapter := webchat.New(cfg.Channels.WebChat.Enabled)
	adapters := []channel.Adapter{
		telegram.New(cfg.Channels.Telegram.Token, cfg.Channels.Telegram.Enabled),
		discord.New(cfg.Channels.Discord.Token, cfg.Channels.Discord.Enabled),
		webchatAdapter,
	}
	manager := channel.NewManager(eva, adapters...)
	if err := manager.Start(ctx); err != nil {
		logger.Error("Failed to start channels", "error", err)
		os.Exit(1)
	}

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "gateway"
	}
	consumer := notify.NewConsumer(rdb, "eva-gateway", hostname, manager.Notify)
	consumer.Start(ctx)

	sched.Start()
	if err := sched.SetupUserSchedule(ctx, "default"); err != nil {
		logger.Error("Failed to set up proactive schedule", "error", err)
	}

	// Health ring.
	ring := healthring.New(cfg.HealthRing)
	if ring != nil {
		ring.Register("redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
		ring.Register("llm", func(ctx context.Context) error {
			var last error
			for _, err := range router.Health(ctx) {
				if err == nil {
					return nil
				}
				last = err
			}
			return last
		})
		if cfg.TTS.Enabled {
			ring.Register("tts", speech.Health)
		}
		if weatherSvc.Configured() {
			ring.Register("weather", func(ctx context.Context) error {
				_, err := weatherSvc.Conditions(ctx, cfg.Weather.DefaultCity)
				return err
			})
		}
		if homeAssistant != nil {
			ring.Register("home_assistant", func(ctx context.Context) error {
				return homeAssistant.Connect(ctx)
			})
		}
		ring.Start()
	}

	srv := server.New(cfg, server.Deps{
		Assistant:     eva,
		Notes:         notes,
		Habits:        habitTracker,
		Briefing:      briefingGen,
		Scheduler:     sched,
		HealthRing:    ring,
		MemoryHandler: memory.NewHandler(mem, logging.WithComponent("memory")),
		WebChat:       webchatHandler(webchatAdapter, cfg),
	})

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	manager.Stop()
	sched.Stop()
	if ring != nil {
		ring.Shutdown()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
	logger.Info("Shutdown complete")
}

func webchatHandler(adapter *webchat.Adapter, cfg *config.Config) http.Handler {
	if !cfg.Channels.WebChat.Enabled {
		return nil
	}
	return adapter.Handler()
}
