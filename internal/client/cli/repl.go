package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Sync(ctx context.Context) error
	List(ctx context.Context) error
	Show(ctx context.Context, id string) error
	Folders(ctx context.Context) error
	Share(ctx context.Context, id string) error
	Status(ctx context.Context) error
}

const (
	helpLoggedOut = "Available commands: login, status, exit"
	helpLoggedIn  = "Available commands: sync, (l)ist, show <id>, folders, share <id>, status, logout, exit"
)

// Root starts the connectivity watcher and blocks in the REPL until the
// user exits or stdin is closed.
func (a *App) Root(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.checkOnline(ctx)
	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	fmt.Fprintln(a.out, "Welcome to OrgKeeper. Type help for commands.")
	runREPL(ctx, a, a.statusLine, a.reader, a.out)
}

func (a *App) statusLine() string {
	if !a.isLoggedIn() {
		return string(a.Mode())
	}
	a.mu.Lock()
	last := a.lastSync
	a.mu.Unlock()
	if last.IsZero() {
		return fmt.Sprintf("%s@%s", a.userName, a.Mode())
	}
	return fmt.Sprintf("%s@%s, synced %s", a.userName, a.Mode(), last.Local().Format(time.TimeOnly))
}

// runREPL reads commands from reader until EOF or "exit". The first token is
// the command; commands taking a resource id read it from the second token.
// Command errors are printed and the loop goes on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for {
		fmt.Fprintf(w, "ok [%s]> ", statusFn())
		line, err := readLine(reader)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(w, helpLoggedIn)
			} else {
				fmt.Fprintln(w, helpLoggedOut)
			}

		case "login":
			cmdErr = a.Login(ctx)

		case "logout":
			cmdErr = a.Logout(ctx)

		case "sync":
			cmdErr = a.Sync(ctx)

		case "l", "list":
			cmdErr = a.List(ctx)

		case "folders":
			cmdErr = a.Folders(ctx)

		case "status":
			cmdErr = a.Status(ctx)

		case "show", "share":
			if len(parts) < 2 {
				printWarn(w, "usage: %s <id>", cmd)
				continue
			}
			if cmd == "show" {
				cmdErr = a.Show(ctx, parts[1])
			} else {
				cmdErr = a.Share(ctx, parts[1])
			}

		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return

		default:
			printWarn(w, "unknown command %q, type help", cmd)
		}

		if cmdErr != nil && !errors.Is(cmdErr, context.Canceled) {
			printErr(w, cmdErr)
		}
	}
}
