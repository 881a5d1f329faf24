package repository

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/hams/portal-server-go/internal/model"
)

// CredentialRepository persists session credentials under stable keys.
// It is the portal-side analog of the browser's local storage: one row per
// live browser session, written only by the session manager.
type CredentialRepository interface {
	Save(ctx context.Context, cred model.StoredCredential) error
	Find(ctx context.Context, key string) (*model.StoredCredential, error)
	Delete(ctx context.Context, key string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type credentialRepo struct {
	db *sqlx.DB
}

func NewCredentialRepository(db *sqlx.DB) CredentialRepository {
	return &credentialRepo{db: db}
}

func (r *credentialRepo) Save(ctx context.Context, cred model.StoredCredential) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO session_credentials (key, token, role, subject_id, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (key) DO UPDATE SET
			token = EXCLUDED.token,
			role = EXCLUDED.role,
			subject_id = EXCLUDED.subject_id,
			expires_at = EXCLUDED.expires_at,
			updated_at = NOW()
	`, cred.Key, cred.Token, cred.Role, cred.SubjectID, cred.ExpiresAt)
	return err
}

func (r *credentialRepo) Find(ctx context.Context, key string) (*model.StoredCredential, error) {
	var cred model.StoredCredential
	err := r.db.GetContext(ctx, &cred, `
		SELECT * FROM session_credentials WHERE key = $1
	`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cred, nil
}

func (r *credentialRepo) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM session_credentials WHERE key = $1
	`, key)
	return err
}

func (r *credentialRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM session_credentials WHERE expires_at <= NOW()
	`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// MemoryCredentialRepository is the fallback store used when no database is
// configured; sessions then do not survive a portal restart.
type MemoryCredentialRepository struct {
	mu    sync.Mutex
	creds map[string]model.StoredCredential
	now   func() time.Time
}

func NewMemoryCredentialRepository() *MemoryCredentialRepository {
	return &MemoryCredentialRepository{
		creds: make(map[string]model.StoredCredential),
		now:   time.Now,
	}
}

func (r *MemoryCredentialRepository) Save(ctx context.Context, cred model.StoredCredential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	if existing, ok := r.creds[cred.Key]; ok {
		cred.CreatedAt = existing.CreatedAt
	} else {
		cred.CreatedAt = now
	}
	cred.UpdatedAt = now
	r.creds[cred.Key] = cred
	return nil
}

func (r *MemoryCredentialRepository) Find(ctx context.Context, key string) (*model.StoredCredential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cred, ok := r.creds[key]
	if !ok {
		return nil, nil
	}
	return &cred, nil
}

func (r *MemoryCredentialRepository) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.creds, key)
	return nil
}

func (r *MemoryCredentialRepository) DeleteExpired(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	var removed int64
	for key, cred := range r.creds {
		if !cred.ExpiresAt.After(now) {
			delete(r.creds, key)
			removed++
		}
	}
	return removed, nil
}
