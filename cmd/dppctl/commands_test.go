package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/subcommands"
	"github.com/google/uuid"
)

func newTestEnv(t *testing.T, h http.Handler) (*environment, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	var stdout, stderr bytes.Buffer
	return &environment{
		api:       srv.URL,
		tokenFile: filepath.Join(t.TempDir(), "credentials.json"),
		stdout:    &stdout,
		stderr:    &stderr,
	}, &stdout, &stderr
}

func run(t *testing.T, cmd subcommands.Command, args ...string) subcommands.ExitStatus {
	t.Helper()
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	cmd.SetFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse %v: %v", args, err)
	}
	return cmd.Execute(context.Background(), fs)
}

func TestProgramsPrintsTable(t *testing.T) {
	id := uuid.New()
	var gotQuery string
	env, stdout, _ := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{{"id": id, "title": "Цифровая школа", "status": "draft", "version": 2}},
			"total": 1, "page": 1, "limit": 20,
		})
	}))

	if st := run(t, &programsCmd{env: env}, "-scope", "all", "-status", "draft,approved"); st != subcommands.ExitSuccess {
		t.Fatalf("exit = %v", st)
	}
	if !strings.Contains(gotQuery, "scope=all") || !strings.Contains(gotQuery, "status=draft%2Capproved") {
		t.Fatalf("query = %q", gotQuery)
	}
	out := stdout.String()
	if !strings.Contains(out, id.String()) || !strings.Contains(out, "Цифровая школа") {
		t.Fatalf("output:\n%s", out)
	}
}

func TestExpiredSessionAsksForLogin(t *testing.T) {
	env, _, stderr := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"session expired","code":"session_expired"}}`))
	}))

	if st := run(t, &whoamiCmd{env: env}); st != subcommands.ExitFailure {
		t.Fatalf("exit = %v", st)
	}
	if !strings.Contains(stderr.String(), "dppctl login") {
		t.Fatalf("stderr = %q", stderr.String())
	}
}

func TestValidationErrorListsFields(t *testing.T) {
	env, _, stderr := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":{"message":"validation failed","code":"validation_failed"},"fields":[{"field":"title","message":"обязательное поле"}]}`))
	}))

	if st := run(t, &submitCmd{env: env}, uuid.NewString()); st != subcommands.ExitFailure {
		t.Fatalf("exit = %v", st)
	}
	if !strings.Contains(stderr.String(), "title: обязательное поле") {
		t.Fatalf("stderr = %q", stderr.String())
	}
}

func TestPDFRequiresID(t *testing.T) {
	env, _, _ := newTestEnv(t, http.NotFoundHandler())
	if st := run(t, &pdfCmd{env: env}, "not-a-uuid"); st != subcommands.ExitUsageError {
		t.Fatalf("exit = %v", st)
	}
}
