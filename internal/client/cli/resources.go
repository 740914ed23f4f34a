package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/orgkeeper/internal/client/models"
	"github.com/dmitrijs2005/orgkeeper/internal/common"
	"github.com/fatih/color"
	"github.com/google/uuid"
)

// Sync runs a full refresh and reports how many resources are stored.
func (a *App) Sync(ctx context.Context) error {
	if !a.isLoggedIn() {
		return common.ErrNotLoggedIn
	}
	if err := a.session.sync.Refresh(ctx); err != nil {
		return err
	}
	list, err := a.session.resources.List(ctx)
	if err != nil {
		return err
	}
	printOK(a.out, "synchronized, %d resources", len(list))
	return nil
}

func (a *App) List(ctx context.Context) error {
	if !a.isLoggedIn() {
		return common.ErrNotLoggedIn
	}
	list, err := a.session.resources.List(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		printHint(a.out, "no resources stored locally, run %s", color.YellowString("sync"))
		return nil
	}

	tree, err := a.folders.Tree(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tUSERNAME\tURI\tFOLDER")
	for _, r := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Name, r.Username, r.URI, folderPath(tree, r.FolderParentID))
	}
	return tw.Flush()
}

func folderPath(tree *models.FolderTree, id *uuid.UUID) string {
	if id == nil {
		return "/"
	}
	path := tree.Path(*id)
	if len(path) == 0 {
		return "?"
	}
	return "/" + strings.Join(path, "/")
}

// Show prints one resource with its permissions and the decrypted secret.
func (a *App) Show(ctx context.Context, arg string) error {
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
	tree, err := a.folders.Tree(ctx)
	if err != nil {
		return err
	}
	names, err := a.subjectNames(ctx)
	if err != nil {
		return err
	}
	secret, err := a.session.resources.Secret(ctx, id)
	if err != nil {
		return err
	}

	md := res.Metadata
	fmt.Fprintf(a.out, "Name:        %s\n", md.Name)
	fmt.Fprintf(a.out, "Username:    %s\n", md.Username)
	fmt.Fprintf(a.out, "URI:         %s\n", md.URI())
	fmt.Fprintf(a.out, "Folder:      %s\n", folderPath(tree, res.FolderParentID))
	if md.Description != "" {
		fmt.Fprintf(a.out, "Description: %s\n", md.Description)
	}
	if len(res.Tags) > 0 {
		fmt.Fprintf(a.out, "Tags:        %s\n", strings.Join(res.Tags, ", "))
	}
	fmt.Fprintf(a.out, "Modified:    %s\n", res.Modified.Local().Format(time.DateTime))
	fmt.Fprintf(a.out, "Password:    %s\n", secret.Password)
	if secret.Description != "" {
		fmt.Fprintf(a.out, "Note:        %s\n", secret.Description)
	}
	if secret.Totp != nil {
		fmt.Fprintf(a.out, "TOTP:        %s (%d digits, %ds)\n", secret.Totp.Algorithm, secret.Totp.Digits, secret.Totp.Period)
	}

	fmt.Fprintln(a.out, "Permissions:")
	for _, p := range res.Permissions {
		fmt.Fprintf(a.out, "  %-8s %s\n", p.Level, names.label(p.Subject()))
	}
	return nil
}

// Folders prints the folder hierarchy, one level of indent per depth.
func (a *App) Folders(ctx context.Context) error {
	if !a.isLoggedIn() {
		return common.ErrNotLoggedIn
	}
	tree, err := a.folders.Tree(ctx)
	if err != nil {
		return err
	}
	empty := true
	tree.Walk(func(f models.Folder, depth int) {
		empty = false
		marker := ""
		if f.Shared {
			marker = color.CyanString(" (shared)")
		}
		fmt.Fprintf(a.out, "%s%s/%s\n", strings.Repeat("  ", depth), f.Name, marker)
	})
	if empty {
		printHint(a.out, "no folders")
	}
	return nil
}

func (a *App) Status(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Fprintf(a.out, "Not logged in, mode %s\n", a.Mode())
		return nil
	}

	last, err := a.session.sync.LastSync(ctx)
	if err != nil {
		return err
	}
	list, err := a.session.resources.List(ctx)
	if err != nil {
		return err
	}

	lastText := "never"
	if !last.IsZero() {
		lastText = last.Local().Format(time.DateTime)
	}
	fmt.Fprintf(a.out, "User:      %s\n", a.userName)
	fmt.Fprintf(a.out, "Mode:      %s\n", a.Mode())
	fmt.Fprintf(a.out, "Last sync: %s\n", lastText)
	fmt.Fprintf(a.out, "Resources: %d\n", len(list))
	return nil
}
