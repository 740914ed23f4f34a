package services

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/dmitrijs2005/orgkeeper/internal/client/client"
	"github.com/dmitrijs2005/orgkeeper/internal/client/models"
	"github.com/dmitrijs2005/orgkeeper/internal/common"
	"github.com/dmitrijs2005/orgkeeper/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ShareState is the lifecycle of a ShareForm.
type ShareState int

const (
	ShareIdle ShareState = iota
	ShareEditing
	ShareValidating
	ShareSubmitting
	ShareClosed
)

func (s ShareState) String() string {
	switch s {
	case ShareIdle:
		return "idle"
	case ShareEditing:
		return "editing"
	case ShareValidating:
		return "validating"
	case ShareSubmitting:
		return "submitting"
	case ShareClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MembershipResolver lists the users of a group. The groups repository
// implements it.
type MembershipResolver interface {
	Members(ctx context.Context, groupID uuid.UUID) ([]uuid.UUID, error)
}

// SecretCrypto is the part of *cryptox.Provider a share needs.
type SecretCrypto interface {
	DecryptSecret(ctx context.Context, frame []byte) ([]byte, error)
	EncryptForUser(ctx context.Context, userID uuid.UUID, plaintext []byte) ([]byte, error)
}

type ShareDeps struct {
	Client client.Client
	Groups MembershipResolver
	Crypto SecretCrypto
	Log    logging.Logger
}

// ShareForm collects permission changes for one resource and sends them in
// a single request. A form belongs to one caller and is not safe for
// concurrent use.
type ShareForm struct {
	resource models.Resource
	current  []models.Permission
	delta    models.PermissionDelta
	state    ShareState
	deps     ShareDeps
	log      logging.Logger
}

// NewShareForm opens a form for resource. current is the permission set as
// last synced from the server.
func NewShareForm(resource models.Resource, current []models.Permission, deps ShareDeps) *ShareForm {
	return &ShareForm{
		resource: resource,
		current:  append([]models.Permission(nil), current...),
		delta:    models.NewPermissionDelta(),
		state:    ShareEditing,
		deps:     deps,
		log:      deps.Log.With("module", "share", "resource", resource.ID),
	}
}

func (f *ShareForm) State() ShareState { return f.state }

// Delta exposes the pending change set. Callers must not modify it.
func (f *ShareForm) Delta() models.PermissionDelta { return f.delta }

func (f *ShareForm) currentFor(s models.Subject) []models.Permission {
	var out []models.Permission
	for _, p := range f.current {
		if p.Subject() == s {
			out = append(out, p)
		}
	}
	return out
}

// SetPermission grants level to subject. A subject that already holds
// level on the server ends up in no set at all.
func (f *ShareForm) SetPermission(s models.Subject, level models.PermissionLevel) error {
	if f.state == ShareClosed {
		return common.ErrSessionClosed
	}
	if !level.Valid() {
		return fmt.Errorf("invalid permission level %d", int(level))
	}

	f.delta.Purge(s)

	if cur := f.currentFor(s); len(cur) > 0 {
		if cur[0].Level == level {
			f.log.Debug(context.Background(), "permission unchanged", "subject", s, "level", level)
			return nil
		}
		p := cur[0]
		p.Level = level
		f.delta.Updated[s] = p
		f.log.Debug(context.Background(), "permission updated", "subject", s, "level", level)
		return nil
	}

	f.delta.New[s] = models.Permission{
		Kind:      models.PermissionKindFor(s.Kind, false),
		SubjectID: s.ID,
		TargetID:  f.resource.ID,
		Level:     level,
	}
	f.log.Debug(context.Background(), "permission added", "subject", s, "level", level)
	return nil
}

// DeletePermission revokes every current permission of subject and drops
// any pending grant for it.
func (f *ShareForm) DeletePermission(s models.Subject) error {
	if f.state == ShareClosed {
		return common.ErrSessionClosed
	}

	f.delta.Purge(s)
	if cur := f.currentFor(s); len(cur) > 0 {
		f.delta.Deleted[s] = cur
	}
	f.log.Debug(context.Background(), "permission removed", "subject", s)
	return nil
}

// hasOwner looks for a surviving owner in new, updated and then untouched
// current entries.
func (f *ShareForm) hasOwner() bool {
	for _, p := range f.delta.New {
		if p.IsOwner() {
			return true
		}
	}
	for _, p := range f.delta.Updated {
		if p.IsOwner() {
			return true
		}
	}
	for _, p := range f.current {
		s := p.Subject()
		if _, ok := f.delta.Deleted[s]; ok {
			continue
		}
		if _, ok := f.delta.Updated[s]; ok {
			continue
		}
		if p.IsOwner() {
			return true
		}
	}
	return false
}

// Validate fails with common.ErrOwnerMissing if the change set would leave
// the resource without an owner.
func (f *ShareForm) Validate() error {
	if f.state == ShareClosed {
		return common.ErrSessionClosed
	}
	f.state = ShareValidating
	defer func() { f.state = ShareEditing }()

	if !f.hasOwner() {
		return common.ErrOwnerMissing
	}
	return nil
}

// recipients resolves the users that gain access: direct user grants plus
// the members of every newly granted group, without duplicates.
func (f *ShareForm) recipients(ctx context.Context) ([]uuid.UUID, error) {
	unique := map[uuid.UUID]struct{}{}
	var groups []uuid.UUID
	for s := range f.delta.New {
		switch s.Kind {
		case models.SubjectUser:
			unique[s.ID] = struct{}{}
		case models.SubjectGroup:
			groups = append(groups, s.ID)
		}
	}

	if len(groups) > 0 {
		members := make([][]uuid.UUID, len(groups))
		g, gctx := errgroup.WithContext(ctx)
		for i, id := range groups {
			g.Go(func() error {
				m, err := f.deps.Groups.Members(gctx, id)
				if err != nil {
					return fmt.Errorf("members of group %s: %w", id, err)
				}
				members[i] = m
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		for _, m := range members {
			for _, id := range m {
				unique[id] = struct{}{}
			}
		}
	}

	ids := make([]uuid.UUID, 0, len(unique))
	for id := range unique {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })
	return ids, nil
}

// ComputeSecretFanout encrypts the resource secret once for every user the
// pending grants reach. It returns nil when nobody new gains access.
func (f *ShareForm) ComputeSecretFanout(ctx context.Context) ([]models.SecretCiphertext, error) {
	users, err := f.recipients(ctx)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}

	plaintext, err := f.deps.Crypto.DecryptSecret(ctx, f.resource.Secret)
	if err != nil {
		return nil, fmt.Errorf("decrypt secret: %w", err)
	}
	defer common.WipeByteArray(plaintext)

	out := make([]models.SecretCiphertext, 0, len(users))
	for _, id := range users {
		data, err := f.deps.Crypto.EncryptForUser(ctx, id, plaintext)
		if err != nil {
			return nil, fmt.Errorf("encrypt secret for %s: %w", id, err)
		}
		out = append(out, models.SecretCiphertext{UserID: id, Data: data})
	}
	f.log.Debug(ctx, "secret fanout computed", "recipients", len(out))
	return out, nil
}

func sortedPermissions(m map[models.Subject]models.Permission) []models.Permission {
	out := make([]models.Permission, 0, len(m))
	for _, p := range m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Subject().String() < out[j].Subject().String() })
	return out
}

// Pending lists the change set in a stable order.
func (f *ShareForm) Pending() (added, updated, deleted []models.Permission) {
	added = sortedPermissions(f.delta.New)
	updated = sortedPermissions(f.delta.Updated)

	subjects := make([]models.Subject, 0, len(f.delta.Deleted))
	for s := range f.delta.Deleted {
		subjects = append(subjects, s)
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].String() < subjects[j].String() })
	for _, s := range subjects {
		deleted = append(deleted, f.delta.Deleted[s]...)
	}
	return added, updated, deleted
}

// Submit validates the change set, computes the secret fanout and sends
// everything in one ShareResource call. The owner check runs before any
// network traffic. On failure the form stays editable.
func (f *ShareForm) Submit(ctx context.Context) error {
	if f.state == ShareClosed {
		return common.ErrSessionClosed
	}

	f.state = ShareValidating
	if !f.hasOwner() {
		f.state = ShareEditing
		return common.ErrOwnerMissing
	}

	f.state = ShareSubmitting
	secrets, err := f.ComputeSecretFanout(ctx)
	if err != nil {
		f.state = ShareEditing
		return fmt.Errorf("compute secret fanout: %w", err)
	}

	added, updated, deleted := f.Pending()
	req := models.ShareRequest{
		ResourceID: f.resource.ID,
		New:        added,
		Updated:    updated,
		Deleted:    deleted,
		Secrets:    secrets,
	}
	if err := f.deps.Client.ShareResource(ctx, req); err != nil {
		f.state = ShareEditing
		f.log.Warn(ctx, "share failed", "error", err)
		return fmt.Errorf("share resource: %w", err)
	}

	f.state = ShareClosed
	f.delta = models.NewPermissionDelta()
	f.current = nil
	f.resource.Secret = nil
	f.log.Info(ctx, "resource shared", "new", len(added), "updated", len(updated), "deleted", len(deleted))
	return nil
}
