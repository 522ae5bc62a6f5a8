package sources

import (
	"strconv"

	"weeksnap/internal/command"
	"weeksnap/internal/config"
	"weeksnap/internal/gather"
)

// Gmail collects inbox statistics and sent mail. The explorer only takes a
// day count, so the window length is passed.
func Gmail(cfg *config.Config) gather.Definition {
	sc := cfg.Sources.Gmail
	tb := newToolbox(cfg, sc)
	days := func(sub string) func(gather.Window) command.Command {
		return func(w gather.Window) command.Command {
			return tb.script("gmail_explorer.py", sub, "--days", strconv.Itoa(w.Days()))
		}
	}
	return gather.Definition{
		Name:  "gmail",
		Delay: sc.Delay(),
		Queries: []gather.Query{
			{Label: "stats", Build: days("stats")},
			{Label: "sent", Build: days("sent")},
		},
	}
}

// Drive collects recently touched and shared documents.
func Drive(cfg *config.Config) gather.Definition {
	sc := cfg.Sources.Drive
	tb := newToolbox(cfg, sc)
	return gather.Definition{
		Name:  "drive",
		Delay: sc.Delay(),
		Queries: []gather.Query{
			fixed("recent", tb.script("drive_explorer.py", "recent")),
			fixed("shared", tb.script("drive_explorer.py", "shared")),
		},
	}
}

// Calendar collects events and the explorer's meeting analysis.
func Calendar(cfg *config.Config) gather.Definition {
	sc := cfg.Sources.Calendar
	tb := newToolbox(cfg, sc)
	return gather.Definition{
		Name:  "calendar",
		Delay: sc.Delay(),
		Queries: []gather.Query{
			fixed("events", tb.script("calendar_explorer.py", "events")),
			fixed("analysis", tb.script("calendar_explorer.py", "analyze")),
		},
	}
}
