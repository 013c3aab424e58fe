package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/johncourpayton/hackCC/internal/canvas"
	"github.com/johncourpayton/hackCC/internal/config"
	"github.com/johncourpayton/hackCC/internal/database"
	"github.com/johncourpayton/hackCC/internal/discord"
	"github.com/johncourpayton/hackCC/internal/reminder"
	"github.com/johncourpayton/hackCC/internal/server"
	"github.com/johncourpayton/hackCC/internal/studyplan"
	"github.com/johncourpayton/hackCC/internal/whatsapp"
	"github.com/robfig/cron/v3"
)

func main() {
	logger := log.New(os.Stdout, "[canvas-reminder] ", log.LstdFlags|log.Lshortfile)
	cfg := config.Load()

	db, err := database.New(cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		logger.Fatalf("database init failed: %v", err)
	}

	ledger := reminder.NewLedger(db, logger)
	canvasClient := canvas.New(cfg.CanvasDomain, cfg.CanvasAPIKey, time.Duration(cfg.LookaheadDays)*24*time.Hour, logger)
	planner := studyplan.New(cfg.OpenAIAPIKey)

	notifier, discordClient, err := buildNotifier(cfg, logger)
	if err != nil {
		logger.Fatalf("notifier init failed: %v", err)
	}

	service := reminder.NewService(canvasClient, notifier, ledger, cfg.Retention, logger)

	api := server.New(canvasClient, service, notifier, planner, ledger, logger)
	api.SetScheduledRecipient(cfg.DiscordUserID)

	scheduler := cron.New(
		cron.WithLocation(cfg.LocalTimezone),
		cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(logger))),
	)
	if err := registerJobs(scheduler, cfg, api, service, canvasClient, discordClient, logger); err != nil {
		logger.Fatalf("scheduler start: %v", err)
	}
	scheduler.Start()
	api.MarkSchedulerRunning(true)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: api.Router(),
	}

	go func() {
		logger.Printf("server starting on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server error: %v", err)
		}
	}()

	waitForShutdown(httpServer, scheduler, logger)
}

// buildNotifier selects the delivery channel. Discord is the default; the
// Twilio WhatsApp variant is opt-in via NOTIFIER=whatsapp.
func buildNotifier(cfg *config.Config, logger *log.Logger) (reminder.Notifier, *discord.Client, error) {
	switch cfg.Notifier {
	case "whatsapp":
		client, err := whatsapp.New(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioWhatsAppNumber, logger)
		if err != nil {
			return nil, nil, err
		}
		return client, nil, nil
	case "discord":
		client, err := discord.New(cfg.DiscordBotToken, logger)
		if err != nil {
			return nil, nil, err
		}
		return client, client, nil
	default:
		return nil, nil, errors.New("NOTIFIER must be \"discord\" or \"whatsapp\"")
	}
}

func registerJobs(scheduler *cron.Cron, cfg *config.Config, api *server.Server, service *reminder.Service, canvasClient *canvas.Client, discordClient *discord.Client, logger *log.Logger) error {
	// The per-tick reminder check. SkipIfStillRunning drops a tick that
	// fires while the previous cycle is still in flight.
	_, err := scheduler.AddFunc("@every "+cfg.CheckInterval.String(), func() {
		recipient := api.ScheduledRecipient()
		if recipient == "" {
			logger.Printf("scheduler: skipping check, no recipient configured")
			return
		}
		sent, err := service.RunCycle(context.Background(), recipient, time.Now().UTC())
		if err != nil {
			logger.Printf("scheduler: reminder check: %v", err)
			return
		}
		if sent > 0 {
			logger.Printf("scheduler: delivered %d reminder(s)", sent)
		}
	})
	if err != nil {
		return err
	}

	// Morning digest of everything due in the lookahead window, Discord only.
	if discordClient != nil {
		_, err = scheduler.AddFunc("0 9 * * *", func() {
			recipient := api.ScheduledRecipient()
			if recipient == "" {
				return
			}
			assignments, err := canvasClient.UpcomingAssignments(context.Background())
			if err != nil {
				logger.Printf("scheduler: digest fetch: %v", err)
				return
			}
			if err := discordClient.SendWeeklyDigest(context.Background(), recipient, assignments); err != nil {
				logger.Printf("scheduler: digest send: %v", err)
			}
		})
	}
	return err
}

func waitForShutdown(httpServer *http.Server, scheduler *cron.Cron, logger *log.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Printf("server shutdown error: %v", err)
	}
	<-scheduler.Stop().Done()
}
