package sources

import (
	"fmt"

	"weeksnap/internal/command"
	"weeksnap/internal/config"
	"weeksnap/internal/gather"
)

const (
	myIssuesQuery     = `{ issues(filter: { assignee: { email: { eq: %q } } }, first: 100) { nodes { identifier title state { name } priority createdAt updatedAt team { name } } } }`
	highPriorityQuery = `{ issues(filter: { assignee: { email: { eq: %q } }, priority: { in: [0, 1] } }, first: 50) { nodes { identifier title state { name } priority team { name } } } }`
	createdQuery      = `{ issues(filter: { creator: { email: { eq: %q } } }, first: 50) { nodes { identifier title state { name } createdAt team { name } } } }`
)

// Linear runs three GraphQL queries for issues assigned to or created by
// the configured email.
func Linear(cfg *config.Config) gather.Definition {
	sc := cfg.Sources.Linear
	tb := newToolbox(cfg, sc)
	email := cfg.Identity.Email

	graphql := func(label, tmpl string, extra ...string) gather.Query {
		return gather.Query{Label: label, Build: func(w gather.Window) command.Command {
			args := []string{fmt.Sprintf(tmpl, email), "--from", w.StartDate(), "--to", w.EndDate()}
			return tb.script("linear_explorer.py", append(args, extra...)...)
		}}
	}

	return gather.Definition{
		Name:     "linear",
		Requires: []gather.Requirement{{Setting: "identity.email", Value: email}},
		Delay:    sc.Delay(),
		Queries: []gather.Query{
			graphql("my_issues", myIssuesQuery, "--urls"),
			graphql("high_priority", highPriorityQuery),
			graphql("created", createdQuery),
		},
	}
}
