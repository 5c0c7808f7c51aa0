package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/khoahotran/account-service/internal/application/service"
	"github.com/khoahotran/account-service/internal/domain/account"
)

// memoryRepo enforces email uniqueness on Save, like the unique index does.
type memoryRepo struct {
	mu       sync.Mutex
	accounts map[string]account.Account
	findErr  error
	saveErr  error
	// lostAck stores the account and still reports this error, like a
	// timeout that fires after the insert committed.
	lostAck  error
	saves    int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{accounts: make(map[string]account.Account)}
}

func (r *memoryRepo) FindByEmail(_ context.Context, email string) (*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	a, ok := r.accounts[email]
	if !ok {
		return nil, fmt.Errorf("find %s: %w", email, account.ErrAccountNotFound)
	}
	return &a, nil
}

func (r *memoryRepo) Save(_ context.Context, a *account.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	if r.saveErr != nil {
		return r.saveErr
	}
	if _, ok := r.accounts[a.Email]; ok {
		return fmt.Errorf("save %s: %w", a.Email, account.ErrEmailTaken)
	}
	r.accounts[a.Email] = *a
	return r.lostAck
}

func (r *memoryRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.accounts)
}

// raceRepo inserts winner just before the first Save, as a concurrent signup would.
type raceRepo struct {
	*memoryRepo
	winner *account.Account
	once   sync.Once
}

func (r *raceRepo) Save(ctx context.Context, a *account.Account) error {
	r.once.Do(func() {
		r.mu.Lock()
		r.accounts[r.winner.Email] = *r.winner
		r.mu.Unlock()
	})
	return r.memoryRepo.Save(ctx, a)
}

// plainHasher is reversible on purpose so tests stay fast.
type plainHasher struct {
	err        error
	compareErr error
}

func (h plainHasher) Hash(password string) (string, error) {
	if h.err != nil {
		return "", h.err
	}
	return "hashed:" + password, nil
}

func (h plainHasher) Compare(password, hash string) (bool, error) {
	if h.compareErr != nil {
		return false, h.compareErr
	}
	return hash == "hashed:"+password, nil
}

type fakeUploader struct {
	mu        sync.Mutex
	uploadErr error
	uploads   []string
	body      []byte
	deleted   chan string
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{deleted: make(chan string, 8)}
}

func (u *fakeUploader) Upload(_ context.Context, file io.Reader, folder, publicID string) (string, error) {
	if u.uploadErr != nil {
		return "", u.uploadErr
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.uploads = append(u.uploads, folder+"/"+publicID)
	u.body = data
	return "https://img.example.com/" + folder + "/" + publicID + ".jpg", nil
}

func (u *fakeUploader) Delete(_ context.Context, folder, publicID string) error {
	u.deleted <- folder + "/" + publicID
	return nil
}

func (u *fakeUploader) uploadCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.uploads)
}

type fakePublisher struct {
	events chan service.AccountEvent
	err    error
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{events: make(chan service.AccountEvent, 8)}
}

func (p *fakePublisher) PublishAccountEvent(_ context.Context, e service.AccountEvent) error {
	p.events <- e
	return p.err
}

var errBoom = errors.New("boom")
