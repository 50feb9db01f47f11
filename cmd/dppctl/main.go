// Command dppctl is a terminal client for the program constructor API.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/subcommands"

	"github.com/dpp-pk/constructor-backend/internal/platform/envutil"
)

func main() {
	env := &environment{stdout: os.Stdout, stderr: os.Stderr}
	flag.StringVar(&env.api, "api", envutil.String("DPP_API", "http://localhost:8080"), "API base URL (env DPP_API)")
	flag.StringVar(&env.tokenFile, "token-file", envutil.String("DPP_TOKEN_FILE", ""), "credentials file (default: user config dir)")

	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")

	subcommands.Register(&loginCmd{env: env}, "session")
	subcommands.Register(&logoutCmd{env: env}, "session")
	subcommands.Register(&whoamiCmd{env: env}, "session")

	subcommands.Register(&programsCmd{env: env}, "programs")
	subcommands.Register(&programCmd{env: env}, "programs")
	subcommands.Register(&submitCmd{env: env}, "programs")
	subcommands.Register(&pdfCmd{env: env}, "programs")
	subcommands.Register(&previewCmd{env: env}, "programs")
	subcommands.Register(&renderCmd{env: env}, "programs")

	subcommands.Register(&expertisesCmd{env: env}, "expertise")
	subcommands.Register(&criteriaCmd{env: env}, "expertise")

	subcommands.Register(&candidatesCmd{env: env}, "admin")
	subcommands.Register(&approveCmd{env: env}, "admin")
	subcommands.Register(&dictExportCmd{env: env}, "admin")
	subcommands.Register(&dictImportCmd{env: env}, "admin")

	flag.Parse()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(int(subcommands.Execute(ctx)))
}
