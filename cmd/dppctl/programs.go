package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/google/subcommands"
	"github.com/google/uuid"

	"github.com/dpp-pk/constructor-backend/internal/apiclient"
	"github.com/dpp-pk/constructor-backend/internal/program"
)

func parseID(env *environment, f *flag.FlagSet, what string) (uuid.UUID, bool) {
	if f.NArg() < 1 {
		env.usageError(what + " id is required")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(f.Arg(0))
	if err != nil {
		env.usageError(fmt.Sprintf("invalid %s id %q", what, f.Arg(0)))
		return uuid.Nil, false
	}
	return id, true
}

type programsCmd struct {
	env    *environment
	scope  string
	status string
	search string
	page   int
	limit  int
}

func (*programsCmd) Name() string     { return "programs" }
func (*programsCmd) Synopsis() string { return "list programs" }
func (*programsCmd) Usage() string {
	return `programs [-scope mine|all] [-status draft,on_expertise] [-search text]:
  Lists programs visible to the signed-in user.
`
}

func (c *programsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.scope, "scope", "mine", "mine or all")
	f.StringVar(&c.status, "status", "", "comma-separated statuses")
	f.StringVar(&c.search, "search", "", "title substring")
	f.IntVar(&c.page, "page", 1, "page number")
	f.IntVar(&c.limit, "limit", 20, "page size")
}

func (c *programsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	client, err := c.env.apiClient()
	if err != nil {
		return c.env.fail(err)
	}
	page, err := client.Programs.List(ctx, apiclient.ProgramQuery{
		Scope:       c.scope,
		Statuses:    splitCSV(c.status),
		Search:      c.search,
		ListOptions: apiclient.ListOptions{Page: c.page, Limit: c.limit},
	})
	if err != nil {
		return c.env.fail(err)
	}
	w := tabwriter.NewWriter(c.env.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tVER\tUPDATED\tTITLE")
	for _, p := range page.Items {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", p.ID, p.Status, p.Version, p.UpdatedAt.Format("2006-01-02 15:04"), p.Title)
	}
	if err := w.Flush(); err != nil {
		return c.env.fail(err)
	}
	fmt.Fprintf(c.env.stderr, "page %d, %d of %d\n", page.Page, len(page.Items), page.Total)
	return subcommands.ExitSuccess
}

type programCmd struct{ env *environment }

func (*programCmd) Name() string           { return "program" }
func (*programCmd) Synopsis() string       { return "print one program as JSON" }
func (*programCmd) Usage() string          { return "program <id>\n" }
func (*programCmd) SetFlags(*flag.FlagSet) {}

func (c *programCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id, ok := parseID(c.env, f, "program")
	if !ok {
		return subcommands.ExitUsageError
	}
	client, err := c.env.apiClient()
	if err != nil {
		return c.env.fail(err)
	}
	p, err := client.Programs.Get(ctx, id)
	if err != nil {
		return c.env.fail(err)
	}
	return c.env.printJSON(p)
}

type submitCmd struct {
	env      *environment
	resubmit bool
}

func (*submitCmd) Name() string     { return "submit" }
func (*submitCmd) Synopsis() string { return "send a program to expertise" }
func (*submitCmd) Usage() string {
	return `submit [-resubmit] <id>:
  Submits a draft, or with -resubmit a revised program.
`
}

func (c *submitCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.resubmit, "resubmit", false, "resubmit after revision")
}

func (c *submitCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id, ok := parseID(c.env, f, "program")
	if !ok {
		return subcommands.ExitUsageError
	}
	client, err := c.env.apiClient()
	if err != nil {
		return c.env.fail(err)
	}
	submit := client.Programs.Submit
	if c.resubmit {
		submit = client.Programs.Resubmit
	}
	p, err := submit(ctx, id)
	if err != nil {
		return c.env.fail(err)
	}
	fmt.Fprintf(c.env.stdout, "%s is now %s\n", p.ID, p.Status)
	return subcommands.ExitSuccess
}

type pdfCmd struct {
	env *environment
	out string
}

func (*pdfCmd) Name() string     { return "pdf" }
func (*pdfCmd) Synopsis() string { return "download the program document as PDF" }
func (*pdfCmd) Usage() string    { return "pdf [-o file.pdf] <id>\n" }

func (c *pdfCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.out, "o", "", "output file, - for stdout (default program-<id>.pdf)")
}

func (c *pdfCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id, ok := parseID(c.env, f, "program")
	if !ok {
		return subcommands.ExitUsageError
	}
	client, err := c.env.apiClient()
	if err != nil {
		return c.env.fail(err)
	}
	doc, err := client.Programs.PDF(ctx, id)
	if err != nil {
		return c.env.fail(err)
	}
	out := c.out
	if out == "" {
		out = "program-" + id.String() + ".pdf"
	}
	if err := c.env.writeOutput(out, doc.Data); err != nil {
		return c.env.fail(err)
	}
	return subcommands.ExitSuccess
}

type previewCmd struct {
	env *environment
	out string
}

func (*previewCmd) Name() string     { return "preview" }
func (*previewCmd) Synopsis() string { return "render one page of a program as PNG" }
func (*previewCmd) Usage() string    { return "preview [-o page.png] <id> <page>\n" }

func (c *previewCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.out, "o", "", "output file (default program-<id>-p<page>.png)")
}

func (c *previewCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id, ok := parseID(c.env, f, "program")
	if !ok {
		return subcommands.ExitUsageError
	}
	n, err := strconv.Atoi(f.Arg(1))
	if err != nil || n < 1 {
		return c.env.usageError("page must be a positive number")
	}
	client, err := c.env.apiClient()
	if err != nil {
		return c.env.fail(err)
	}
	img, err := client.Programs.PagePreview(ctx, id, n)
	if err != nil {
		return c.env.fail(err)
	}
	out := c.out
	if out == "" {
		out = fmt.Sprintf("program-%s-p%d.png", id, n)
	}
	if err := c.env.writeOutput(out, img.Data); err != nil {
		return c.env.fail(err)
	}
	return subcommands.ExitSuccess
}

type renderCmd struct {
	env *environment
	out string
}

func (*renderCmd) Name() string     { return "render" }
func (*renderCmd) Synopsis() string { return "render an unsaved document JSON file on the server" }
func (*renderCmd) Usage() string    { return "render [-o out.pdf] <document.json>\n" }

func (c *renderCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.out, "o", "preview.pdf", "output file, - for stdout")
}

func (c *renderCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 1 {
		return c.env.usageError("render: document file is required")
	}
	raw, err := os.ReadFile(f.Arg(0))
	if err != nil {
		return c.env.fail(err)
	}
	var doc program.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return c.env.fail(fmt.Errorf("decode %s: %w", f.Arg(0), err))
	}
	client, err := c.env.apiClient()
	if err != nil {
		return c.env.fail(err)
	}
	pdf, err := client.Programs.Render(ctx, &doc)
	if err != nil {
		return c.env.fail(err)
	}
	if err := c.env.writeOutput(c.out, pdf.Data); err != nil {
		return c.env.fail(err)
	}
	return subcommands.ExitSuccess
}
