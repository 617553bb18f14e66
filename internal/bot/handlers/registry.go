package handlers

import (
	tgbot "github.com/go-telegram/bot"

	"github.com/edgard/tgjournal/internal/telegram"
)

// RegisterAllCommands initializes and returns a map of all available bot commands.
// Authorization is applied bot-wide, so commands carry no extra middleware.
func RegisterAllCommands(deps HandlerDeps) map[string]telegram.RegisteredHandler {
	handlers := make(map[string]telegram.RegisteredHandler)

	handlers["/start"] = telegram.RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "start",
		Handler:     NewStartHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
		Description: "Start the journal bot",
	}
	handlers["/help"] = telegram.RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "help",
		Handler:     NewHelpHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
		Description: "How the journal works",
	}
	handlers["/stats"] = telegram.RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "stats",
		Handler:     NewStatsHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
		Description: "What was saved today",
	}

	return handlers
}
