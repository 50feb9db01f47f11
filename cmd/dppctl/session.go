package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"github.com/dpp-pk/constructor-backend/internal/platform/envutil"
)

type loginCmd struct {
	env      *environment
	email    string
	password string
}

func (*loginCmd) Name() string     { return "login" }
func (*loginCmd) Synopsis() string { return "open a session and store its credentials" }
func (*loginCmd) Usage() string {
	return `login -email <email> [-password <password>]:
  Signs in. Without -password the password is read from DPP_PASSWORD or stdin.
`
}

func (c *loginCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.email, "email", envutil.String("DPP_EMAIL", ""), "account email (env DPP_EMAIL)")
	f.StringVar(&c.password, "password", "", "account password")
}

func (c *loginCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.email == "" {
		return c.env.usageError("login: -email is required")
	}
	password := c.password
	if password == "" {
		password = envutil.String("DPP_PASSWORD", "")
	}
	if password == "" {
		fmt.Fprint(c.env.stderr, "password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return c.env.fail(fmt.Errorf("read password: %w", err))
		}
		password = strings.TrimRight(line, "\r\n")
	}
	client, err := c.env.apiClient()
	if err != nil {
		return c.env.fail(err)
	}
	sess, err := client.Auth.Login(ctx, c.email, password)
	if err != nil {
		return c.env.fail(err)
	}
	fmt.Fprintf(c.env.stdout, "logged in as %s (%s)\n", sess.User.Email, sess.User.Role)
	if sess.User.MustChangePassword {
		fmt.Fprintln(c.env.stderr, "this account uses a temporary password, change it in the web interface")
	}
	return subcommands.ExitSuccess
}

type logoutCmd struct{ env *environment }

func (*logoutCmd) Name() string           { return "logout" }
func (*logoutCmd) Synopsis() string       { return "end the session and forget credentials" }
func (*logoutCmd) Usage() string          { return "logout\n" }
func (*logoutCmd) SetFlags(*flag.FlagSet) {}

func (c *logoutCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	client, err := c.env.apiClient()
	if err != nil {
		return c.env.fail(err)
	}
	if err := client.Auth.Logout(ctx); err != nil {
		return c.env.fail(err)
	}
	fmt.Fprintln(c.env.stdout, "logged out")
	return subcommands.ExitSuccess
}

type whoamiCmd struct{ env *environment }

func (*whoamiCmd) Name() string           { return "whoami" }
func (*whoamiCmd) Synopsis() string       { return "show the signed-in user" }
func (*whoamiCmd) Usage() string          { return "whoami\n" }
func (*whoamiCmd) SetFlags(*flag.FlagSet) {}

func (c *whoamiCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	client, err := c.env.apiClient()
	if err != nil {
		return c.env.fail(err)
	}
	me, err := client.Auth.Me(ctx)
	if err != nil {
		return c.env.fail(err)
	}
	fmt.Fprintf(c.env.stdout, "%s %s <%s> role=%s status=%s\n", me.LastName, me.FirstName, me.Email, me.Role, me.Status)
	return subcommands.ExitSuccess
}
