package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/orgkeeper/internal/client/models"
	"github.com/dmitrijs2005/orgkeeper/internal/common"
	"github.com/google/uuid"
)

// directoryIndex maps users and groups from the local directory to
// subjects and back.
type directoryIndex struct {
	users  []models.User
	groups []models.Group
}

func (a *App) subjectNames(ctx context.Context) (*directoryIndex, error) {
	users, err := a.directory.Users(ctx)
	if err != nil {
		return nil, err
	}
	groups, err := a.directory.Groups(ctx)
	if err != nil {
		return nil, err
	}
	return &directoryIndex{users: users, groups: groups}, nil
}

// label returns a human readable name for s, falling back to its id.
func (d *directoryIndex) label(s models.Subject) string {
	switch s.Kind {
	case models.SubjectUser:
		for _, u := range d.users {
			if u.ID == s.ID {
				return "user " + u.DisplayName()
			}
		}
	case models.SubjectGroup:
		for _, g := range d.groups {
			if g.ID == s.ID {
				return "group " + g.Name
			}
		}
	}
	return s.String()
}

// resolve finds the subject named by ref. ref is either an id or a username
// (kind "user") or group name (kind "group"). Names are matched without
// regard to case.
func (d *directoryIndex) resolve(kind, ref string) (models.Subject, error) {
	id, idErr := uuid.Parse(ref)

	switch kind {
	case "user":
		for _, u := range d.users {
			if (idErr == nil && u.ID == id) || strings.EqualFold(u.Username, ref) {
				return models.UserSubject(u.ID), nil
			}
		}
	case "group":
		for _, g := range d.groups {
			if (idErr == nil && g.ID == id) || strings.EqualFold(g.Name, ref) {
				return models.GroupSubject(g.ID), nil
			}
		}
	default:
		return models.Subject{}, fmt.Errorf("unknown subject kind %q, expected user or group", kind)
	}
	return models.Subject{}, fmt.Errorf("%s %q: %w", kind, ref, common.ErrorNotFound)
}
