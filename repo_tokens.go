package identity

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserTokens persists single-use secrets. Supersede and Consume carry the
// atomicity guarantees the SingleUseTokens service relies on.
type UserTokens interface {
	repository.Repository[*UserToken]
	UserTokenStore

	SupersedeTx(ctx context.Context, tx bun.IDB, token *UserToken) (*UserToken, error)
	ConsumeTx(ctx context.Context, tx bun.IDB, tokenHash string, purpose TokenPurpose, userID *uuid.UUID) (*UserToken, error)
	PurgeExpired(ctx context.Context) (int64, error)
}

type userTokens struct {
	repository.Repository[*UserToken]
	db *bun.DB
}

var (
	_ UserTokens     = (*userTokens)(nil)
	_ UserTokenStore = (*userTokens)(nil)
)

func NewUserTokensRepository(db *bun.DB) UserTokens {
	repo := repository.NewRepository[*UserToken](db, repository.ModelHandlers[*UserToken]{
		NewRecord: func() *UserToken { return &UserToken{} },
		GetID: func(t *UserToken) uuid.UUID {
			if t == nil {
				return uuid.Nil
			}
			return t.ID
		},
		SetID: func(t *UserToken, id uuid.UUID) {
			if t != nil {
				t.ID = id
			}
		},
		GetIdentifier: func() string {
			return "token_hash"
		},
	})

	return &userTokens{
		Repository: repo,
		db:         db,
	}
}

// Supersede removes any outstanding token for (user, purpose) and inserts
// the replacement inside a single transaction, so concurrent issue calls
// never leave two live secrets.
func (r *userTokens) Supersede(ctx context.Context, token *UserToken) (*UserToken, error) {
	var created *UserToken
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		created, err = r.SupersedeTx(ctx, tx, token)
		return err
	})
	return created, err
}

func (r *userTokens) SupersedeTx(ctx context.Context, tx bun.IDB, token *UserToken) (*UserToken, error) {
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}

	if _, err := tx.NewDelete().
		Model((*UserToken)(nil)).
		Where("?TableAlias.user_id = ?", token.UserID).
		Where("?TableAlias.purpose = ?", token.Purpose).
		Exec(ctx); err != nil {
		return nil, err
	}

	return r.Repository.CreateTx(ctx, tx, token)
}

// Consume deletes the matching record and returns it in one statement, so
// of two racing calls presenting the same secret exactly one sees the row.
func (r *userTokens) Consume(ctx context.Context, tokenHash string, purpose TokenPurpose, userID *uuid.UUID) (*UserToken, error) {
	return r.ConsumeTx(ctx, r.db, tokenHash, purpose, userID)
}

func (r *userTokens) ConsumeTx(ctx context.Context, tx bun.IDB, tokenHash string, purpose TokenPurpose, userID *uuid.UUID) (*UserToken, error) {
	record := &UserToken{}

	q := tx.NewDelete().
		Model(record).
		Where("?TableAlias.token_hash = ?", tokenHash).
		Where("?TableAlias.purpose = ?", purpose).
		Returning("*")

	if userID != nil {
		q = q.Where("?TableAlias.user_id = ?", *userID)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return nil, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}

	if affected == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"purpose": purpose,
			})
	}

	return record, nil
}

// PurgeExpired removes records whose validity window has passed. Expiry is
// otherwise evaluated lazily at consume time; this is for periodic sweeps.
func (r *userTokens) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := r.db.NewDelete().
		Model((*UserToken)(nil)).
		Where("?TableAlias.expires_at < CURRENT_TIMESTAMP").
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
