package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/orgkeeper/internal/client/client"
	"github.com/dmitrijs2005/orgkeeper/internal/client/models"
	"github.com/dmitrijs2005/orgkeeper/internal/client/testdb"
	"github.com/dmitrijs2005/orgkeeper/internal/dbx"
	"github.com/google/uuid"
)

// ---- helpers ----

func setupExec(t *testing.T) *dbx.Executor {
	t.Helper()
	return dbx.NewExecutor(testdb.Open(t))
}

var testModified = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// ---- fake client ----

// fakeClient implements client.Client for unit tests. Unset behaviors
// fall through to the embedded nil interface and panic.
type fakeClient struct {
	client.Client

	mu sync.Mutex

	Types    []models.ResourceType
	TypesErr error

	Records  []models.ResourceRecord
	PageErr  map[int]error
	OnPage   func(ctx context.Context, page int)
	PageHits []int

	Folders    []models.Folder
	FoldersErr error
	Users      []models.User
	UsersErr   error
	Groups     []models.Group
	GroupsErr  error

	ShareErr   error
	ShareCalls []models.ShareRequest

	GetSaltRet      []byte
	GetSaltErr      error
	Session         *models.Session
	LoginErr        error
	LastLoginUser   string
	LastLoginKey    []byte
	PingErr         error
	LastGetSaltUser string
}

func (f *fakeClient) Close() error { return nil }

func (f *fakeClient) Ping(context.Context) error { return f.PingErr }

func (f *fakeClient) GetSalt(_ context.Context, username string) ([]byte, error) {
	f.LastGetSaltUser = username
	return append([]byte(nil), f.GetSaltRet...), f.GetSaltErr
}

func (f *fakeClient) Login(_ context.Context, username string, verifier []byte) (*models.Session, error) {
	f.LastLoginUser = username
	f.LastLoginKey = append([]byte(nil), verifier...)
	if f.LoginErr != nil {
		return nil, f.LoginErr
	}
	return f.Session, nil
}

func (f *fakeClient) FetchResourceTypes(context.Context) ([]models.ResourceType, error) {
	return f.Types, f.TypesErr
}

func (f *fakeClient) FetchResources(ctx context.Context, page, limit int) (*models.Page[models.ResourceRecord], error) {
	f.mu.Lock()
	f.PageHits = append(f.PageHits, page)
	hook := f.OnPage
	err := f.PageErr[page]
	f.mu.Unlock()

	if hook != nil {
		hook(ctx, page)
	}
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	total := (len(f.Records) + limit - 1) / limit
	if total == 0 {
		total = 1
	}
	from := min((page-1)*limit, len(f.Records))
	to := min(from+limit, len(f.Records))
	return &models.Page[models.ResourceRecord]{
		Items:      append([]models.ResourceRecord(nil), f.Records[from:to]...),
		Page:       page,
		Limit:      limit,
		TotalPages: total,
	}, nil
}

func (f *fakeClient) hits() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.PageHits...)
}

func (f *fakeClient) FetchFolders(context.Context) ([]models.Folder, error) {
	return f.Folders, f.FoldersErr
}

func (f *fakeClient) FetchUsers(context.Context) ([]models.User, error) {
	return f.Users, f.UsersErr
}

func (f *fakeClient) FetchUserGroups(context.Context) ([]models.Group, error) {
	return f.Groups, f.GroupsErr
}

func (f *fakeClient) ShareResource(_ context.Context, req models.ShareRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ShareCalls = append(f.ShareCalls, req)
	return f.ShareErr
}

// ---- fake crypto ----

type fakeCrypto struct {
	mu           sync.Mutex
	decryptCalls int
	encrypted    map[uuid.UUID]int
	decryptErr   error
	encryptErr   error
}

func newFakeCrypto() *fakeCrypto {
	return &fakeCrypto{encrypted: map[uuid.UUID]int{}}
}

func (f *fakeCrypto) DecryptSecret(_ context.Context, frame []byte) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.decryptCalls++
	if f.decryptErr != nil {
		return nil, f.decryptErr
	}
	return append([]byte("plain:"), frame...), nil
}

func (f *fakeCrypto) EncryptForUser(_ context.Context, userID uuid.UUID, plaintext []byte) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.encryptErr != nil {
		return nil, f.encryptErr
	}
	f.encrypted[userID]++
	return append([]byte(userID.String()+":"), plaintext...), nil
}

// ---- fake membership ----

type fakeGroups struct {
	members map[uuid.UUID][]uuid.UUID
	err     error
}

func (f *fakeGroups) Members(_ context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.members[id], nil
}
