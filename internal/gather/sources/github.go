package sources

import (
	"strconv"

	"weeksnap/internal/command"
	"weeksnap/internal/config"
	"weeksnap/internal/gather"
)

// GitHub collects pull requests and commits through the gh CLI. The
// preflight makes sure gh is logged in as the configured user.
func GitHub(cfg *config.Config) gather.Definition {
	sc := cfg.Sources.GitHub
	user := cfg.Identity.GitHubUser
	timeout := sc.Timeout(cfg.Collect.Timeout())
	limit := strconv.Itoa(max(sc.Limit, 1))

	gh := func(args ...string) command.Command {
		if org := cfg.Identity.GitHubOrg; org != "" {
			args = append(args, "org:"+org)
		}
		return command.Command{Name: cfg.Collect.GH, Args: args, Timeout: timeout}
	}
	search := func(label string, args func(w gather.Window) []string) gather.Query {
		return gather.Query{Label: label, Build: func(w gather.Window) command.Command { return gh(args(w)...) }}
	}

	commits := search("commits", func(gather.Window) []string {
		return []string{"search", "commits", "--author=" + user, "--limit", limit,
			"--json", "sha,commit,repository"}
	})
	commits.Transform = commitsSince

	return gather.Definition{
		Name:     "github",
		Requires: []gather.Requirement{{Setting: "identity.github_user", Value: user}},
		Preflight: &gather.Preflight{
			Command: command.Command{Name: cfg.Collect.GH, Args: []string{"auth", "status"}, Timeout: timeout},
			Expect:  user,
		},
		Delay: sc.Delay(),
		Queries: []gather.Query{
			search("prs_created", func(w gather.Window) []string {
				return []string{"search", "prs", "--author=" + user, "--created=>=" + w.StartDate(),
					"--json", "number,title,state,createdAt,updatedAt,url,repository,labels"}
			}),
			search("prs_reviewed", func(w gather.Window) []string {
				return []string{"search", "prs", "--reviewed-by=" + user, "--updated=>=" + w.StartDate(),
					"--json", "number,title,author,url,repository"}
			}),
			search("prs_involved", func(w gather.Window) []string {
				return []string{"search", "prs", "--involves=" + user, "--updated=>=" + w.StartDate(),
					"--json", "number,title,repository,author"}
			}),
			commits,
			search("team_prs_reviewed", func(w gather.Window) []string {
				return []string{"search", "prs", "--reviewed-by=" + user, "--created=>=" + w.StartDate(),
					"--limit", limit, "--json", "number,title,author,repository,createdAt,state"}
			}),
		},
	}
}

// commitsSince keeps commits whose author date is on or after the window
// start. gh search commits has no date qualifier that matches the window.
func commitsSince(v any, w gather.Window) any {
	items, ok := v.([]any)
	if !ok {
		return v
	}
	start := w.StartDate()
	out := make([]any, 0, len(items))
	for _, item := range items {
		if d := commitDate(item); d != "" && d >= start {
			out = append(out, item)
		}
	}
	return out
}

func commitDate(item any) string {
	m, _ := item.(map[string]any)
	commit, _ := m["commit"].(map[string]any)
	author, _ := commit["author"].(map[string]any)
	d, _ := author["date"].(string)
	return d
}
