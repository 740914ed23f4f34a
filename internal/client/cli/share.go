package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/orgkeeper/internal/client/models"
	"github.com/dmitrijs2005/orgkeeper/internal/client/services"
	"github.com/dmitrijs2005/orgkeeper/internal/common"
	"github.com/fatih/color"
	"github.com/google/uuid"
)

const shareHelp = `Share commands:
  user <name|id> <read|update|owner>   grant or change a user permission
  group <name|id> <read|update|owner>  grant or change a group permission
  remove user|group <name|id>          drop a permission
  review                               list pending changes
  submit                               send the changes to the server
  cancel                               leave without changes`

// Share opens an interactive editing session for the permissions of one
// resource. Nothing reaches the server until "submit".
func (a *App) Share(ctx context.Context, arg string) error {
	if !a.isLoggedIn() {
		return common.ErrNotLoggedIn
	}
	id, err := uuid.Parse(arg)
	if err != nil {
		return fmt.Errorf("invalid resource id %q", arg)
	}
	res, err := a.session.resources.Get(ctx, id)
	if err != nil {
		return err
	}
	dir, err := a.subjectNames(ctx)
	if err != nil {
		return err
	}

	if a.Mode() != ModeOnline {
		printWarn(a.out, "offline: changes can be prepared, submit needs the server")
	}

	form := services.NewShareForm(*res, res.Permissions, a.shareDeps())
	if err := runShareREPL(ctx, form, dir, res.Metadata.Name, a.reader, a.out); err != nil {
		return err
	}

	if a.Mode() == ModeOnline {
		return a.Sync(ctx)
	}
	return nil
}

// runShareREPL drives form until it is submitted or the user leaves.
// It returns common.ErrCancelled when the user leaves without submitting.
func runShareREPL(ctx context.Context, form *services.ShareForm, dir *directoryIndex, name string, reader *bufio.Reader, w io.Writer) error {
	fmt.Fprintln(w, shareHelp)
	for {
		fmt.Fprintf(w, "share %s> ", name)
		line, err := readLine(reader)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return common.ErrCancelled
			}
			return err
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "help":
			fmt.Fprintln(w, shareHelp)

		case "user", "group":
			if len(parts) != 3 {
				printWarn(w, "usage: %s <name|id> <read|update|owner>", parts[0])
				continue
			}
			s, err := dir.resolve(parts[0], parts[1])
			if err != nil {
				printErr(w, err)
				continue
			}
			level, err := models.ParsePermissionLevel(parts[2])
			if err != nil {
				printErr(w, err)
				continue
			}
			if err := form.SetPermission(s, level); err != nil {
				printErr(w, err)
				continue
			}
			printOK(w, "%s: %s", dir.label(s), level)

		case "remove":
			if len(parts) != 3 {
				printWarn(w, "usage: remove user|group <name|id>")
				continue
			}
			s, err := dir.resolve(parts[1], parts[2])
			if err != nil {
				printErr(w, err)
				continue
			}
			if err := form.DeletePermission(s); err != nil {
				printErr(w, err)
				continue
			}
			printOK(w, "%s: removed", dir.label(s))

		case "review":
			printPending(w, form, dir)

		case "submit":
			if err := form.Submit(ctx); err != nil {
				printErr(w, err)
				continue
			}
			printOK(w, "permissions updated")
			return nil

		case "cancel", "exit", "quit":
			return common.ErrCancelled

		default:
			printWarn(w, "unknown command %q, type help", parts[0])
		}
	}
}

func printPending(w io.Writer, form *services.ShareForm, dir *directoryIndex) {
	added, updated, deleted := form.Pending()
	if len(added)+len(updated)+len(deleted) == 0 {
		printHint(w, "no pending changes")
		return
	}
	for _, p := range added {
		fmt.Fprintf(w, "  %s %s: %s\n", color.GreenString("+"), dir.label(p.Subject()), p.Level)
	}
	for _, p := range updated {
		fmt.Fprintf(w, "  %s %s: %s\n", color.YellowString("~"), dir.label(p.Subject()), p.Level)
	}
	for _, p := range deleted {
		fmt.Fprintf(w, "  %s %s: %s\n", color.RedString("-"), dir.label(p.Subject()), p.Level)
	}
	if err := form.Validate(); err != nil {
		printErr(w, err)
	}
}
