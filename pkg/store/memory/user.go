package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/plaenen/cmscore/pkg/domain"
	"github.com/plaenen/cmscore/pkg/user"
)

// UserRepository keeps users under the nil site.
type UserRepository struct {
	t *table[user.State]
}

var _ user.Repository = (*UserRepository)(nil)

func NewUserRepository() *UserRepository {
	live := func(f func(user.State) string) func(user.State) string {
		return func(s user.State) string {
			if s.Status == domain.StatusDeleted {
				return ""
			}
			return f(s)
		}
	}
	return &UserRepository{t: newTable(user.AggregateType,
		func(s user.State) int64 { return s.Version },
		func(s *user.State, v int64) { s.Version = v },
		func(user.State) uuid.UUID { return uuid.Nil },
		uniqueIndex[user.State]{"users.email", live(func(s user.State) string { return s.Email })},
		uniqueIndex[user.State]{"users.user_name", live(func(s user.State) string { return s.UserName })},
	)}
}

func (r *UserRepository) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	s, err := r.t.get(uuid.Nil, id)
	if err != nil {
		return nil, err
	}
	return user.Restore(s), nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*user.User, error) {
	return r.findLive(func(s user.State) bool { return s.Email == email })
}

func (r *UserRepository) GetByUserName(_ context.Context, userName string) (*user.User, error) {
	return r.findLive(func(s user.State) bool { return s.UserName == userName })
}

func (r *UserRepository) GetAll(_ context.Context) ([]*user.User, error) {
	rows := r.t.list(uuid.Nil, liveUser)
	out := make([]*user.User, len(rows))
	for i, s := range rows {
		out[i] = user.Restore(s)
	}
	return out, nil
}

func (r *UserRepository) Create(_ context.Context, u *user.User) error {
	v, err := r.t.insert(u.ID(), u.Snapshot(), u.Version())
	if err != nil {
		return err
	}
	u.MarkPersisted(v)
	return nil
}

func (r *UserRepository) Update(_ context.Context, u *user.User) error {
	v, err := r.t.replace(u.ID(), u.Snapshot(), u.Version())
	if err != nil {
		return err
	}
	u.MarkPersisted(v)
	return nil
}

func (r *UserRepository) findLive(match func(user.State) bool) (*user.User, error) {
	s, ok := r.t.find(uuid.Nil, func(s user.State) bool { return liveUser(s) && match(s) })
	if !ok {
		return nil, &domain.NotFoundError{AggregateType: user.AggregateType}
	}
	return user.Restore(s), nil
}

func liveUser(s user.State) bool { return s.Status != domain.StatusDeleted }
