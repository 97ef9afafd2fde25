package cli

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/rfcdiscuss/internal/server"
)

type command struct {
	usage   string
	minArgs int
	maxArgs int // -1 for no limit
	run     func(ctx context.Context, a *App, srv *server.App, args []string) error
}

var commands = map[string]command{
	"migrate":       {usage: "ensure the schema is current", run: runMigrate},
	"request-login": {usage: "<email>", minArgs: 1, maxArgs: 1, run: runRequestLogin},
	"verify-login":  {usage: "<user-id> [code]", minArgs: 1, maxArgs: 2, run: runVerifyLogin},
	"whoami":        {usage: "<session-token>", minArgs: 1, maxArgs: 1, run: runWhoami},
	"comment":       {usage: "<session-token> <slug> <body...>", minArgs: 3, maxArgs: -1, run: runComment},
	"comments":      {usage: "<slug>", minArgs: 1, maxArgs: 1, run: runComments},
	"counts":        {usage: "comment counts per document", run: runCounts},
	"purge-tokens":  {usage: "delete expired login codes", run: runPurgeTokens},
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339) }

// Schema work already happened in server.NewApp.
func runMigrate(ctx context.Context, a *App, srv *server.App, args []string) error {
	fmt.Fprintln(a.out, "schema is up to date")
	return nil
}

func runRequestLogin(ctx context.Context, a *App, srv *server.App, args []string) error {
	req, err := srv.Auth.RequestLogin(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "user_id: %d\nemail: %s\ncode: %s\nexpires_at: %s\n",
		req.UserID, req.Email, req.Code, formatTime(req.ExpiresAt))
	return nil
}

func runVerifyLogin(ctx context.Context, a *App, srv *server.App, args []string) error {
	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bad user id %q", ErrUsage, args[0])
	}

	var code string
	if len(args) > 1 {
		code = args[1]
	} else {
		raw, err := GetCode(a.errOut)
		if err != nil {
			return err
		}
		code = strings.TrimSpace(string(raw))
	}

	id, err := srv.Auth.VerifyLogin(ctx, userID, code)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "user_id: %d\nemail: %s\nexpires_at: %s\ntoken: %s\n",
		id.UserID, id.Email, formatTime(id.ExpiresAt), id.SessionToken)
	return nil
}

func runWhoami(ctx context.Context, a *App, srv *server.App, args []string) error {
	id, err := srv.Auth.IdentityFromToken(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "user_id: %d\nemail: %s\nexpires_at: %s\n", id.UserID, id.Email, formatTime(id.ExpiresAt))
	return nil
}

func runComment(ctx context.Context, a *App, srv *server.App, args []string) error {
	id, err := srv.Auth.IdentityFromToken(args[0])
	if err != nil {
		return err
	}
	c, err := srv.Comments.Add(ctx, args[1], id.UserID, strings.Join(args[2:], " "))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "comment %d added to %s\n", c.ID, c.DocumentSlug)
	return nil
}

func runComments(ctx context.Context, a *App, srv *server.App, args []string) error {
	list, err := srv.Comments.ListForDocument(ctx, args[0])
	if err != nil {
		return err
	}
	for _, c := range list {
		fmt.Fprintf(a.out, "%s\t%s\t%s\n", formatTime(c.CreatedAt), c.AuthorEmail, c.Body)
	}
	return nil
}

func runCounts(ctx context.Context, a *App, srv *server.App, args []string) error {
	counts, err := srv.Comments.CountsByDocument(ctx)
	if err != nil {
		return err
	}
	slugs := make([]string, 0, len(counts))
	for slug := range counts {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	for _, slug := range slugs {
		fmt.Fprintf(a.out, "%s\t%d\n", slug, counts[slug])
	}
	return nil
}

func runPurgeTokens(ctx context.Context, a *App, srv *server.App, args []string) error {
	n, err := srv.Tokens.PurgeExpired(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "purged %d expired login codes\n", n)
	return nil
}
