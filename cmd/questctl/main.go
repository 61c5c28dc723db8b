// Command questctl is a small command-line client for a SocialQuest server.
//
// Usage:
//
//	questctl [-a addr] [-s session file] <command> [args]
//
// Commands: register, login, logout, me, events, feed, post, like, comment,
// challenges, levelup.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/isdelr/socialquest-be/internal/client"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	home, _ := os.UserHomeDir()
	addr := flag.String("a", envOr("QUEST_ADDR", "http://localhost:8080"), "server base URL")
	sessionPath := flag.String("s", filepath.Join(home, ".questctl", "session.json"), "session file")
	timeout := flag.Duration("t", client.DefaultTimeout, "request timeout")
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	app := &app{
		api:   client.New(*addr, *timeout),
		store: client.FileTokenStore{Path: *sessionPath},
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*(*timeout)+time.Second)
	defer cancel()

	out, err := app.run(ctx, flag.Arg(0), flag.Args()[1:])
	if err != nil {
		if errors.Is(err, client.ErrSessionExpired) {
			log.Error().Msg("Not logged in, run: questctl login <username> <password>")
		} else {
			log.Error().Err(err).Str("command", flag.Arg(0)).Msg("Command failed")
		}
		cancel()
		os.Exit(1)
	}
	if out != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(out)
	}
}

type app struct {
	api   *client.Client
	store client.FileTokenStore
}

func (a *app) run(ctx context.Context, cmd string, args []string) (any, error) {
	switch cmd {
	case "register":
		if len(args) != 2 {
			return nil, usage("register <username> <password>")
		}
		id, err := a.api.Register(ctx, args[0], args[1])
		return map[string]string{"userId": id}, err
	case "login":
		if len(args) != 2 {
			return nil, usage("login <username> <password>")
		}
		s, user, err := a.api.Login(ctx, args[0], args[1])
		if err != nil {
			return nil, err
		}
		return user, a.store.Save(s)
	}

	s, err := a.store.Load()
	if err != nil {
		return nil, err
	}
	// Refreshed or invalidated tokens are written back whatever the outcome.
	defer func() {
		if err := a.store.Save(s); err != nil {
			log.Warn().Err(err).Msg("Failed to save session")
		}
	}()

	switch cmd {
	case "logout":
		return nil, a.api.Logout(ctx, s)
	case "me":
		return a.api.Me(ctx, s)
	case "events":
		return a.api.Events(ctx, s, intArg(args, 0))
	case "feed":
		return a.api.ListPosts(ctx, s, intArg(args, 0), intArg(args, 1))
	case "post":
		if len(args) == 0 {
			return nil, usage("post <content>")
		}
		return a.api.CreatePost(ctx, s, strings.Join(args, " "))
	case "like":
		if len(args) != 1 {
			return nil, usage("like <post id>")
		}
		return a.api.Like(ctx, s, args[0])
	case "comment":
		if len(args) < 2 {
			return nil, usage("comment <post id> <content>")
		}
		return a.api.Comment(ctx, s, args[0], strings.Join(args[1:], " "))
	case "challenges":
		return a.api.Challenges(ctx, s)
	case "levelup":
		return a.api.LevelUp(ctx, s)
	}
	return nil, fmt.Errorf("unknown command %q", cmd)
}

func usage(s string) error {
	return fmt.Errorf("usage: questctl %s", s)
}

func intArg(args []string, i int) int {
	if i >= len(args) {
		return 0
	}
	n, _ := strconv.Atoi(args[i])
	return n
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
