package sources

import (
	"strconv"
	"strings"

	"weeksnap/internal/command"
	"weeksnap/internal/config"
	"weeksnap/internal/gather"
)

// Slack collects the user's messages and an activity summary. Each
// configured channel adds one more search restricted to that channel; the
// delay knob spaces the calls to stay under Slack's search rate limit.
func Slack(cfg *config.Config) gather.Definition {
	sc := cfg.Sources.Slack
	tb := newToolbox(cfg, sc.SourceConfig)
	count := strconv.Itoa(max(sc.Count, 1))
	from := "from:@" + cfg.Identity.SlackHandle

	search := func(label, q string) gather.Query {
		return gather.Query{Label: label, Build: func(w gather.Window) command.Command {
			return tb.script("slack_explorer.py", "search", q,
				"--from", w.StartDate(), "--to", w.EndDate(), "--count", count)
		}}
	}

	queries := []gather.Query{
		search("messages_from_me", from),
		{Label: "activity_summary", Build: func(w gather.Window) command.Command {
			return tb.script("slack_explorer.py", "activity", "--from", w.StartDate(), "--to", w.EndDate())
		}},
	}
	seen := make(map[string]bool)
	for _, ch := range sc.Channels {
		ch = strings.TrimPrefix(strings.TrimSpace(ch), "#")
		if ch == "" || seen[ch] {
			continue
		}
		seen[ch] = true
		queries = append(queries, search("channel_"+ch, "in:#"+ch+" "+from))
	}

	return gather.Definition{
		Name:     "slack",
		Requires: []gather.Requirement{{Setting: "identity.slack_handle", Value: cfg.Identity.SlackHandle}},
		Queries:  queries,
		Delay:    sc.Delay(),
	}
}
