package notify

import (
	"github.com/rs/zerolog"
)

// LogNotifier writes reminders to a logger. Used by the local CLI, where the
// terminal is the notification surface.
type LogNotifier struct {
	Logger zerolog.Logger
}

func (n LogNotifier) Show(title, body string) {
	n.Logger.Info().Str("title", title).Msg(body)
}
