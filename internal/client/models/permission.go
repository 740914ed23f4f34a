package models

import (
	"fmt"

	"github.com/google/uuid"
)

// PermissionLevel uses the server's numeric codes.
type PermissionLevel int

const (
	PermissionRead   PermissionLevel = 1
	PermissionUpdate PermissionLevel = 7
	PermissionOwner  PermissionLevel = 15
)

func (l PermissionLevel) String() string {
	switch l {
	case PermissionRead:
		return "read"
	case PermissionUpdate:
		return "update"
	case PermissionOwner:
		return "owner"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// Valid reports whether l is one of the three known levels.
func (l PermissionLevel) Valid() bool {
	return l == PermissionRead || l == PermissionUpdate || l == PermissionOwner
}

// ParsePermissionLevel accepts "read", "update" or "owner".
func ParsePermissionLevel(s string) (PermissionLevel, error) {
	switch s {
	case "read":
		return PermissionRead, nil
	case "update":
		return PermissionUpdate, nil
	case "owner":
		return PermissionOwner, nil
	default:
		return 0, fmt.Errorf("unknown permission level %q", s)
	}
}

// SubjectKind is who a permission is granted to.
type SubjectKind string

const (
	SubjectUser  SubjectKind = "user"
	SubjectGroup SubjectKind = "group"
)

// Subject identifies a user or a group.
type Subject struct {
	Kind SubjectKind `json:"kind"`
	ID   uuid.UUID   `json:"id"`
}

func UserSubject(id uuid.UUID) Subject  { return Subject{Kind: SubjectUser, ID: id} }
func GroupSubject(id uuid.UUID) Subject { return Subject{Kind: SubjectGroup, ID: id} }

func (s Subject) String() string {
	return string(s.Kind) + ":" + s.ID.String()
}

// PermissionKind is the tag of the Permission union.
type PermissionKind string

const (
	UserToResource  PermissionKind = "user_resource"
	UserToFolder    PermissionKind = "user_folder"
	GroupToResource PermissionKind = "group_resource"
	GroupToFolder   PermissionKind = "group_folder"
)

// PermissionKindFor builds the tag from its two dimensions.
func PermissionKindFor(subject SubjectKind, onFolder bool) PermissionKind {
	switch {
	case subject == SubjectUser && !onFolder:
		return UserToResource
	case subject == SubjectUser:
		return UserToFolder
	case !onFolder:
		return GroupToResource
	default:
		return GroupToFolder
	}
}

// Permission grants Level on TargetID to SubjectID. Kind says whether the
// subject is a user or a group and whether the target is a resource or a
// folder. ID is nil for permissions proposed locally and not yet created on
// the server.
type Permission struct {
	ID        *uuid.UUID      `json:"id,omitempty"`
	Kind      PermissionKind  `json:"kind"`
	SubjectID uuid.UUID       `json:"aro_foreign_key"`
	TargetID  uuid.UUID       `json:"aco_foreign_key"`
	Level     PermissionLevel `json:"type"`
}

func (p Permission) SubjectKind() SubjectKind {
	if p.Kind == GroupToResource || p.Kind == GroupToFolder {
		return SubjectGroup
	}
	return SubjectUser
}

func (p Permission) OnFolder() bool {
	return p.Kind == UserToFolder || p.Kind == GroupToFolder
}

func (p Permission) Subject() Subject {
	return Subject{Kind: p.SubjectKind(), ID: p.SubjectID}
}

func (p Permission) IsOwner() bool {
	return p.Level == PermissionOwner
}

// PermissionDelta is the pending change set of a share session. A subject
// is a key of at most one of the three maps.
type PermissionDelta struct {
	New     map[Subject]Permission
	Updated map[Subject]Permission
	Deleted map[Subject][]Permission
}

func NewPermissionDelta() PermissionDelta {
	return PermissionDelta{
		New:     map[Subject]Permission{},
		Updated: map[Subject]Permission{},
		Deleted: map[Subject][]Permission{},
	}
}

// Purge removes s from all three sets.
func (d PermissionDelta) Purge(s Subject) {
	delete(d.New, s)
	delete(d.Updated, s)
	delete(d.Deleted, s)
}

func (d PermissionDelta) Empty() bool {
	return len(d.New) == 0 && len(d.Updated) == 0 && len(d.Deleted) == 0
}
