package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/subcommands"

	"github.com/dpp-pk/constructor-backend/internal/apiclient"
)

// environment is shared by every command: global flags, output streams and the lazily built client.
type environment struct {
	api       string
	tokenFile string
	stdout    io.Writer
	stderr    io.Writer

	client *apiclient.Client
}

func (e *environment) tokens() (apiclient.TokenStore, error) {
	path := e.tokenFile
	if path == "" {
		p, err := apiclient.DefaultTokenPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return apiclient.NewFileTokenStore(path), nil
}

func (e *environment) apiClient() (*apiclient.Client, error) {
	if e.client != nil {
		return e.client, nil
	}
	tokens, err := e.tokens()
	if err != nil {
		return nil, err
	}
	c, err := apiclient.New(apiclient.Config{BaseURL: e.api, Tokens: tokens})
	if err != nil {
		return nil, err
	}
	e.client = c
	return c, nil
}

// fail prints err in a form fit for a terminal and returns the matching exit status.
func (e *environment) fail(err error) subcommands.ExitStatus {
	var ae *apiclient.APIError
	switch {
	case errors.Is(err, apiclient.ErrSessionExpired):
		fmt.Fprintln(e.stderr, "session expired: run `dppctl login` again")
	case errors.As(err, &ae):
		fmt.Fprintf(e.stderr, "error: %s\n", ae.Message)
		if ae.Step != "" {
			fmt.Fprintf(e.stderr, "  step: %s\n", ae.Step)
		}
		for _, f := range ae.Fields {
			fmt.Fprintf(e.stderr, "  %s: %s\n", f.Field, f.Message)
		}
	default:
		fmt.Fprintf(e.stderr, "error: %v\n", err)
	}
	return subcommands.ExitFailure
}

func (e *environment) usageError(msg string) subcommands.ExitStatus {
	fmt.Fprintln(e.stderr, msg)
	return subcommands.ExitUsageError
}

func (e *environment) printJSON(v any) subcommands.ExitStatus {
	enc := json.NewEncoder(e.stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return e.fail(err)
	}
	return subcommands.ExitSuccess
}

// writeOutput stores data at path, or writes it to stdout when path is "-".
func (e *environment) writeOutput(path string, data []byte) error {
	if path == "-" {
		_, err := e.stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(e.stderr, "wrote %s (%d bytes)\n", path, len(data))
	return nil
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
