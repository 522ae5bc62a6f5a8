package sources

import (
	"weeksnap/internal/config"
	"weeksnap/internal/gather"
)

// LaunchDarkly lists flags, environments and projects. None of the
// explorer's listings take a date range.
func LaunchDarkly(cfg *config.Config) gather.Definition {
	sc := cfg.Sources.LaunchDarkly
	tb := newToolbox(cfg, sc)
	return gather.Definition{
		Name:  "launchdarkly",
		Delay: sc.Delay(),
		Queries: []gather.Query{
			fixed("flags", tb.script("launchdarkly_explorer.py", "flags")),
			fixed("environments", tb.script("launchdarkly_explorer.py", "environments")),
			fixed("projects", tb.script("launchdarkly_explorer.py", "projects")),
		},
	}
}
