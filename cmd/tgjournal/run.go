package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/go-co-op/gocron/v2"
	tgbot "github.com/go-telegram/bot"
	"github.com/jonboulle/clockwork"

	"github.com/edgard/tgjournal/internal/bot"
	"github.com/edgard/tgjournal/internal/bot/handlers"
	"github.com/edgard/tgjournal/internal/bot/tasks"
	"github.com/edgard/tgjournal/internal/config"
	"github.com/edgard/tgjournal/internal/database"
	"github.com/edgard/tgjournal/internal/gemini"
	"github.com/edgard/tgjournal/internal/journal"
	"github.com/edgard/tgjournal/internal/logger"
	"github.com/edgard/tgjournal/internal/telegram"
)

// run initializes and starts all application components (config, logger, ledger,
// journal, bot, scheduler), handles graceful shutdown, and returns an exit code.
func run(ctx context.Context, configPath string) int {
	if needsSetup(configPath) {
		slog.Error("No configuration found. Run \"tgjournal setup\" first or set "+config.EnvPrefix+"_TELEGRAM_TOKEN.", "path", configPath)
		return 1
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Log.Level, cfg.Log.JSON)
	log.Info("Logger initialized", "level", cfg.Log.Level, "json", cfg.Log.JSON)

	if err := checkWritableDir(cfg.Journal.SaveDirectory); err != nil {
		log.Error("Journal save directory is not writable", "path", cfg.Journal.SaveDirectory, "error", err)
		return 1
	}

	if _, err := os.Stat(configPath); err == nil {
		// Only log.level is applied live; other settings need a restart.
		go func() {
			if err := config.Watch(ctx, configPath, log, func(c *config.Config) {
				logger.SetLevel(c.Log.Level)
			}); err != nil {
				log.Warn("Configuration watcher stopped", "error", err)
			}
		}()
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Error("Invalid journal time zone", "timezone", cfg.Journal.Timezone, "error", err)
		return 1
	}

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db) // Ensure DB is closed on function exit
	store := database.NewStore(db, log)

	assembler := journal.NewAssembler(journal.Settings{
		SaveDirectory:   cfg.Journal.SaveDirectory,
		Location:        loc,
		DownloadTimeout: cfg.Journal.DownloadTimeout,
	}, clockwork.NewRealClock(), log)
	log.Info("Journal ready", "save_directory", cfg.Journal.SaveDirectory, "timezone", loc.String())

	var gemClient gemini.Client
	if cfg.Gemini.APIKey != "" {
		gemClient, err = gemini.NewClient(ctx, cfg.Gemini, log)
		if err != nil {
			log.Error("Failed to initialize Gemini client", "error", err)
			return 1
		}
	} else {
		log.Info("Gemini API key not set, daily digests disabled")
	}

	hDeps := handlers.HandlerDeps{
		Logger:    log,
		Config:    cfg,
		Store:     store,
		Assembler: assembler,
	}
	tDeps := tasks.TaskDeps{
		Logger:       log,
		Store:        store,
		GeminiClient: gemClient,
		Config:       cfg,
		Assembler:    assembler,
	}

	botOpts := []tgbot.Option{
		tgbot.WithServerURL(cfg.Telegram.APIURL),
		tgbot.WithMiddlewares(logger.Middleware(log), handlers.AllowedUsers(hDeps)),
		tgbot.WithDefaultHandler(handlers.NewJournalHandler(hDeps)),
		tgbot.WithWorkers(cfg.Telegram.Workers),
		tgbot.WithErrorsHandler(telegram.ErrorsHandler(log)),
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	// Retrieve bot info and store it in the config for runtime use
	cfg.Telegram.BotInfo, err = tg.GetMe(ctx)
	if err != nil {
		log.Error("Failed to get bot info", "error", err)
		return 1
	}
	log.Info("Retrieved bot info", "bot_id", cfg.Telegram.BotInfo.ID, "bot_username", cfg.Telegram.BotInfo.Username)

	cmdHandlers := handlers.RegisterAllCommands(hDeps)
	if err := telegram.RegisterHandlers(tg, log, cmdHandlers); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}
	telegram.SetCommands(ctx, tg, log, cmdHandlers)

	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps), gocron.WithLocation(loc))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}
	app := bot.NewBot(log, store, tg, sched)

	log.Info("Starting bot...")
	runErr := app.Run(ctx) // Run blocks until context is cancelled or an error occurs
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		// Allow logs to flush before exiting on error
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	return 0
}

// needsSetup reports whether there is neither a config file nor a token in
// the environment.
func needsSetup(configPath string) bool {
	if os.Getenv(config.EnvPrefix+"_TELEGRAM_TOKEN") != "" {
		return false
	}
	_, err := os.Stat(configPath)
	return errors.Is(err, fs.ErrNotExist)
}
