package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"

	"github.com/dpp-pk/constructor-backend/internal/apiclient"
	"github.com/dpp-pk/constructor-backend/internal/services"
)

type expertisesCmd struct {
	env    *environment
	all    bool
	status string
}

func (*expertisesCmd) Name() string     { return "expertises" }
func (*expertisesCmd) Synopsis() string { return "list expertise assignments" }
func (*expertisesCmd) Usage() string {
	return `expertises [-all] [-status pending,in_progress]:
  Lists the caller's assignments, or with -all every expertise (administrators).
`
}

func (c *expertisesCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.all, "all", false, "list every expertise")
	f.StringVar(&c.status, "status", "", "comma-separated statuses")
}

func (c *expertisesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	client, err := c.env.apiClient()
	if err != nil {
		return c.env.fail(err)
	}
	q := apiclient.ExpertiseQuery{Statuses: splitCSV(c.status)}
	list := client.Expertises.Mine
	if c.all {
		list = client.Expertises.List
	}
	page, err := list(ctx, q)
	if err != nil {
		return c.env.fail(err)
	}
	w := tabwriter.NewWriter(c.env.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPROGRAM\tEXPERT\tSTATUS\tROUND")
	for _, e := range page.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", e.ID, e.ProgramID, e.ExpertID, e.Status, e.RevisionRound)
	}
	if err := w.Flush(); err != nil {
		return c.env.fail(err)
	}
	return subcommands.ExitSuccess
}

type criteriaCmd struct{ env *environment }

func (*criteriaCmd) Name() string           { return "criteria" }
func (*criteriaCmd) Synopsis() string       { return "print the expertise checklist" }
func (*criteriaCmd) Usage() string          { return "criteria\n" }
func (*criteriaCmd) SetFlags(*flag.FlagSet) {}

func (c *criteriaCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	client, err := c.env.apiClient()
	if err != nil {
		return c.env.fail(err)
	}
	cat, err := client.Expertises.Criteria(ctx)
	if err != nil {
		return c.env.fail(err)
	}
	for _, s := range cat.Sections {
		fmt.Fprintf(c.env.stdout, "%s\n", s.Title)
		for _, cr := range s.Criteria {
			fmt.Fprintf(c.env.stdout, "  [%s] %s\n", cr.Key, cr.Title)
		}
	}
	return subcommands.ExitSuccess
}

type candidatesCmd struct {
	env    *environment
	status string
	search string
}

func (*candidatesCmd) Name() string     { return "candidates" }
func (*candidatesCmd) Synopsis() string { return "list registration candidates" }
func (*candidatesCmd) Usage() string    { return "candidates [-status pending] [-search text]\n" }

func (c *candidatesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.status, "status", "pending", "candidate status")
	f.StringVar(&c.search, "search", "", "name or email substring")
}

func (c *candidatesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	client, err := c.env.apiClient()
	if err != nil {
		return c.env.fail(err)
	}
	page, err := client.Candidates.List(ctx, apiclient.CandidateQuery{Status: c.status, Search: c.search})
	if err != nil {
		return c.env.fail(err)
	}
	w := tabwriter.NewWriter(c.env.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEMAIL\tNAME\tROLE\tSTATUS")
	for _, cand := range page.Items {
		fmt.Fprintf(w, "%s\t%s\t%s %s\t%s\t%s\n", cand.ID, cand.Email, cand.LastName, cand.FirstName, cand.Role, cand.Status)
	}
	if err := w.Flush(); err != nil {
		return c.env.fail(err)
	}
	return subcommands.ExitSuccess
}

type approveCmd struct{ env *environment }

func (*approveCmd) Name() string           { return "approve" }
func (*approveCmd) Synopsis() string       { return "approve a candidate and create the account" }
func (*approveCmd) Usage() string          { return "approve <candidate-id>\n" }
func (*approveCmd) SetFlags(*flag.FlagSet) {}

func (c *approveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id, ok := parseID(c.env, f, "candidate")
	if !ok {
		return subcommands.ExitUsageError
	}
	client, err := c.env.apiClient()
	if err != nil {
		return c.env.fail(err)
	}
	created, err := client.Candidates.Approve(ctx, id)
	if err != nil {
		return c.env.fail(err)
	}
	fmt.Fprintf(c.env.stdout, "created %s (%s)\n", created.User.Email, created.User.Role)
	if created.TemporaryPassword != "" {
		fmt.Fprintf(c.env.stdout, "temporary password: %s\n", created.TemporaryPassword)
	}
	return subcommands.ExitSuccess
}

type dictExportCmd struct {
	env    *environment
	format string
	out    string
}

func (*dictExportCmd) Name() string     { return "dict-export" }
func (*dictExportCmd) Synopsis() string { return "export all dictionaries" }
func (*dictExportCmd) Usage() string    { return "dict-export [-format json|yaml] [-o file]\n" }

func (c *dictExportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", "yaml", "json or yaml")
	f.StringVar(&c.out, "o", "-", "output file, - for stdout")
}

func (c *dictExportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	format, err := services.ParseExportFormat(c.format)
	if err != nil {
		return c.env.usageError(err.Error())
	}
	client, err := c.env.apiClient()
	if err != nil {
		return c.env.fail(err)
	}
	dump, err := client.Dictionaries.Export(ctx, format)
	if err != nil {
		return c.env.fail(err)
	}
	if err := c.env.writeOutput(c.out, dump.Data); err != nil {
		return c.env.fail(err)
	}
	return subcommands.ExitSuccess
}

type dictImportCmd struct {
	env    *environment
	format string
}

func (*dictImportCmd) Name() string     { return "dict-import" }
func (*dictImportCmd) Synopsis() string { return "upsert dictionaries from a dump" }
func (*dictImportCmd) Usage() string    { return "dict-import [-format json|yaml] <file>\n" }

func (c *dictImportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", "yaml", "json or yaml")
}

func (c *dictImportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 1 {
		return c.env.usageError("dict-import: file is required")
	}
	format, err := services.ParseExportFormat(c.format)
	if err != nil {
		return c.env.usageError(err.Error())
	}
	data, err := os.ReadFile(f.Arg(0))
	if err != nil {
		return c.env.fail(err)
	}
	client, err := c.env.apiClient()
	if err != nil {
		return c.env.fail(err)
	}
	n, err := client.Dictionaries.Import(ctx, format, data)
	if err != nil {
		return c.env.fail(err)
	}
	fmt.Fprintf(c.env.stdout, "imported %d entries\n", n)
	return subcommands.ExitSuccess
}
