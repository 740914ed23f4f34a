package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/orgkeeper/internal/client/client"
	"github.com/dmitrijs2005/orgkeeper/internal/common"
	"github.com/fatih/color"
)

func printOK(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, color.GreenString("✓")+" "+fmt.Sprintf(format, args...))
}

func printWarn(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, color.YellowString("!")+" "+fmt.Sprintf(format, args...))
}

func printHint(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, color.CyanString("→")+" "+fmt.Sprintf(format, args...))
}

// printErr prints err with a hint that depends on its kind: invariant
// errors ask the user to change the input, transport errors to try again.
func printErr(w io.Writer, err error) {
	fmt.Fprintln(w, color.RedString("✗")+" "+err.Error())
	switch {
	case errors.Is(err, common.ErrOwnerMissing):
		printHint(w, "fix your selection: keep or add at least one owner")
	case errors.Is(err, common.ErrCancelled):
		printHint(w, "cancelled, nothing was changed")
	case errors.Is(err, client.ErrUnavailable):
		printHint(w, "server unavailable, retry later")
	case errors.Is(err, client.ErrUnauthorized):
		printHint(w, "session rejected, log in again")
	case errors.Is(err, client.ErrRejected):
		printHint(w, "the server rejected the request, review it and retry")
	case errors.Is(err, common.ErrNotLoggedIn):
		printHint(w, "run %s first", color.YellowString("login"))
	case errors.Is(err, common.ErrorNotFound):
		printHint(w, "run %s to refresh local data", color.YellowString("sync"))
	}
}
