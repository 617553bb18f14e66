package config

import "time"

// DefaultPath is used when no --config flag is given.
const DefaultPath = "./config.yaml"

// EnvPrefix prefixes environment overrides, e.g. TGJOURNAL_TELEGRAM_TOKEN.
const EnvPrefix = "TGJOURNAL"

// Default values for configuration
const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = false

	DefaultTelegramWorkers = 4
	DefaultTelegramAPIURL  = "https://api.telegram.org"

	DefaultJournalDownloadTimeout  = 30 * time.Second
	DefaultJournalMaxDownloadBytes = 20 << 20 // Bot API getFile limit

	DefaultDatabasePath          = "tgjournal.db"
	DefaultDatabaseRetentionDays = 90

	DefaultGeminiModel       = "gemini-2.0-flash"
	DefaultGeminiTemperature = 0.4
	DefaultGeminiTimeout     = 2 * time.Minute
	DefaultGeminiInstruction = "You summarize a personal journal kept through Telegram. " +
		"Write a short markdown digest of the day: the main topics, decisions, and anything worth following up. " +
		"Refer to attachments by their file names. Do not invent content that is not in the journal."
)

// Default user-facing messages.
var DefaultMessages = MessagesConfig{
	Welcome:      "👋 Hi! Send me text, photos or documents and I'll save them to your journal.",
	Help:         "Everything you send is appended to today's journal file. Photos and documents are stored next to it.\n\n/stats shows what was saved today.",
	Unauthorized: "🚫 You are not allowed to use this journal.",
	Stats:        "📊 %s: %d message(s) saved, %d attachment(s) saved, %d attachment(s) failed.",
}

// DefaultTasks are the scheduled tasks known to the registry.
var DefaultTasks = map[string]TaskConfig{
	"sql_maintenance": {Enabled: true, Schedule: "0 0 4 * * 0"},
	"ledger_prune":    {Enabled: true, Schedule: "0 30 4 * * *"},
	"daily_digest":    {Enabled: false, Schedule: "0 15 0 * * *"},
}

func setDefaults(v interface{ SetDefault(string, any) }) {
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.json", DefaultLogJSON)

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.allowed_user_ids", []int64{})
	v.SetDefault("telegram.workers", DefaultTelegramWorkers)
	v.SetDefault("telegram.api_url", DefaultTelegramAPIURL)

	v.SetDefault("journal.save_directory", "")
	v.SetDefault("journal.timezone", "")
	v.SetDefault("journal.download_timeout", DefaultJournalDownloadTimeout)
	v.SetDefault("journal.max_download_bytes", DefaultJournalMaxDownloadBytes)

	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("database.retention_days", DefaultDatabaseRetentionDays)

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", DefaultGeminiModel)
	v.SetDefault("gemini.temperature", DefaultGeminiTemperature)
	v.SetDefault("gemini.system_instruction", DefaultGeminiInstruction)
	v.SetDefault("gemini.timeout", DefaultGeminiTimeout)

	for name, task := range DefaultTasks {
		v.SetDefault("scheduler.tasks."+name+".enabled", task.Enabled)
		v.SetDefault("scheduler.tasks."+name+".schedule", task.Schedule)
	}

	v.SetDefault("messages.welcome", DefaultMessages.Welcome)
	v.SetDefault("messages.help", DefaultMessages.Help)
	v.SetDefault("messages.unauthorized", DefaultMessages.Unauthorized)
	v.SetDefault("messages.stats", DefaultMessages.Stats)
}
