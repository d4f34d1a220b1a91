package sqlstore

import (
	"context"

	"github.com/google/uuid"

	"github.com/plaenen/cmscore/pkg/domain"
	"github.com/plaenen/cmscore/pkg/user"
)

const userColumns = "id, email, user_name, password_hash, status, version"

type UserRepository struct {
	s *Store
}

var _ user.Repository = (*UserRepository)(nil)

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	row := r.s.conn(ctx).QueryRowContext(ctx, r.s.rebind(
		"SELECT "+userColumns+" FROM users WHERE id = ?"), id.String())
	u, err := scanUser(row)
	if err != nil {
		return nil, notFound(user.AggregateType, id, err, "get user")
	}
	return u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.getLive(ctx, "email", email)
}

func (r *UserRepository) GetByUserName(ctx context.Context, userName string) (*user.User, error) {
	return r.getLive(ctx, "user_name", userName)
}

func (r *UserRepository) getLive(ctx context.Context, column, value string) (*user.User, error) {
	row := r.s.conn(ctx).QueryRowContext(ctx, r.s.rebind(
		"SELECT "+userColumns+" FROM users WHERE "+column+" = ? AND status <> ?"),
		value, string(domain.StatusDeleted))
	u, err := scanUser(row)
	if err != nil {
		return nil, notFound(user.AggregateType, uuid.Nil, err, "get user by "+column)
	}
	return u, nil
}

func (r *UserRepository) GetAll(ctx context.Context) ([]*user.User, error) {
	rows, err := r.s.conn(ctx).QueryContext(ctx, r.s.rebind(
		"SELECT "+userColumns+" FROM users WHERE status <> ? ORDER BY created_seq, id"),
		string(domain.StatusDeleted))
	if err != nil {
		return nil, mapError("list users", err)
	}
	defer rows.Close()

	var out []*user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, mapError("list users", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list users", err)
	}
	return out, nil
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	st := u.Snapshot()
	if st.Version != 0 {
		return &domain.ConcurrencyConflictError{AggregateType: user.AggregateType, ID: st.ID, Expected: st.Version}
	}
	_, err := r.s.conn(ctx).ExecContext(ctx, r.s.rebind(
		"INSERT INTO users ("+userColumns+", created_seq, updated_at) VALUES (?, ?, ?, ?, ?, 1, ?, ?)"),
		st.ID.String(), st.Email, st.UserName, st.PasswordHash, string(st.Status), seq(), nowMillis())
	if err != nil {
		return mapError("create user", err)
	}
	u.MarkPersisted(1)
	return nil
}

func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	st := u.Snapshot()
	return r.s.updateVersioned(ctx, user.AggregateType, "users", uuid.Nil, u,
		`UPDATE users
		SET email = ?, user_name = ?, password_hash = ?, status = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		st.Email, st.UserName, st.PasswordHash, string(st.Status), nowMillis(),
		st.ID.String(), st.Version)
}

func scanUser(row scanner) (*user.User, error) {
	var st user.State
	var status string
	if err := row.Scan(&st.ID, &st.Email, &st.UserName, &st.PasswordHash, &status, &st.Version); err != nil {
		return nil, err
	}
	st.Status = domain.Status(status)
	return user.Restore(st), nil
}
