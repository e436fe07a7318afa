package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/shinelstudios/website-sub000/internal/model"
)

// ErrUserNotFound is returned when no backend knows the email. Handlers must
// collapse this into the same response as a bad password.
var ErrUserNotFound = errors.New("store: user not found")

// UserStore resolves a login email to a provisioned user.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// KVUserStore reads users from the user KV namespace, one JSON blob per
// email under "user:<email>".
type KVUserStore struct {
	kv KV
}

func NewKVUserStore(kv KV) *KVUserStore { return &KVUserStore{kv: kv} }

func (s *KVUserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	raw, err := s.kv.Get(ctx, "user:"+strings.ToLower(email))
	if err == ErrNotFound {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	var u model.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// StaticUserStore serves the USERS_JSON fallback allowlist baked into
// configuration. An empty or malformed allowlist is simply an empty store.
type StaticUserStore struct {
	byEmail map[string]model.User
}

// NewStaticUserStore parses a JSON array of users. Emails are lowercased.
func NewStaticUserStore(usersJSON string) *StaticUserStore {
	s := &StaticUserStore{byEmail: make(map[string]model.User)}
	if strings.TrimSpace(usersJSON) == "" {
		return s
	}
	var users []model.User
	if err := json.Unmarshal([]byte(usersJSON), &users); err != nil {
		return s
	}
	for _, u := range users {
		u.Email = strings.ToLower(u.Email)
		s.byEmail[u.Email] = u
	}
	return s
}

func (s *StaticUserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	u, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

// UserResolver chains user stores: the primary store first, then the static
// allowlist. Only ErrUserNotFound falls through; any other failure stops the
// chain so a flaky backend does not silently grant allowlist access.
type UserResolver struct {
	stores []UserStore
}

func NewUserResolver(stores ...UserStore) *UserResolver {
	return &UserResolver{stores: stores}
}

func (r *UserResolver) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, s := range r.stores {
		u, err := s.GetByEmail(ctx, email)
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
	}
	return nil, ErrUserNotFound
}
