package persistence

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/lodgecrew/lodgecrew/modules/core/domain/entities/session"
	"github.com/lodgecrew/lodgecrew/modules/core/infrastructure/persistence/models"
	"github.com/lodgecrew/lodgecrew/pkg/composables"
)

var (
	ErrSessionNotFound = errors.New("session not found")
)

const (
	// Token lookup happens before the tenant is known; the session row itself
	// carries the tenant the rest of the request binds to.
	sessionFindQuery = `
		SELECT token, tenant_id, user_id, expires_at, ip, user_agent, created_at
		FROM sessions WHERE token = $1`

	sessionInsertQuery = `
		INSERT INTO sessions (token, tenant_id, user_id, expires_at, ip, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	sessionDeleteQuery = `DELETE FROM sessions WHERE token = $1`
)

type SessionRepository struct{}

func NewSessionRepository() session.Repository {
	return &SessionRepository{}
}

func (r *SessionRepository) GetByToken(ctx context.Context, token string) (*session.Session, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	var s models.Session
	if err := tx.QueryRow(ctx, sessionFindQuery, token).Scan(
		&s.Token,
		&s.TenantID,
		&s.UserID,
		&s.ExpiresAt,
		&s.IP,
		&s.UserAgent,
		&s.CreatedAt,
	); err != nil {
		return nil, ErrSessionNotFound
	}
	return ToDomainSession(&s)
}

func (r *SessionRepository) Create(ctx context.Context, sess *session.Session) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}

	dbSession := toDBSession(sess)
	if _, err := tx.Exec(
		ctx,
		sessionInsertQuery,
		dbSession.Token,
		dbSession.TenantID,
		dbSession.UserID,
		dbSession.ExpiresAt,
		dbSession.IP,
		dbSession.UserAgent,
		dbSession.CreatedAt,
	); err != nil {
		return errors.Wrap(err, "failed to insert session")
	}
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, token string) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}

	if _, err := tx.Exec(ctx, sessionDeleteQuery, token); err != nil {
		return errors.Wrap(err, "failed to delete session")
	}
	return nil
}
