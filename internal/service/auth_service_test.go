package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/todo-service/internal/config"
	"github.com/spec-kit/todo-service/internal/domain"
	apperrors "github.com/spec-kit/todo-service/pkg/util"
)

// memUserRepo is an in-memory UserRepository for service tests.
type memUserRepo struct {
	users map[string]*domain.User // keyed by id
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*domain.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	if user, ok := r.users[id]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *memUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func testAuthConfig() config.Config {
	return config.Config{
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			AccessTokenTTLMinutes: 30,
			BcryptCost:            bcrypt.MinCost,
		},
	}
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()
	repo := newMemUserRepo()
	svc := NewAuthService(testAuthConfig(), repo)

	user, err := svc.Register(ctx, "alice", "alice@x.com", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@x.com", user.Email)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "password123", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")))
}

func TestAuthService_Register_Duplicates(t *testing.T) {
	ctx := context.Background()
	repo := newMemUserRepo()
	svc := NewAuthService(testAuthConfig(), repo)

	_, err := svc.Register(ctx, "alice", "alice@x.com", "password123")
	require.NoError(t, err)

	tests := []struct {
		name         string
		username     string
		email        string
		expectedCode string
	}{
		{
			name:         "same username rejected",
			username:     "alice",
			email:        "other@x.com",
			expectedCode: "DUPLICATE_USERNAME",
		},
		{
			name:         "same email with different username rejected",
			username:     "alice2",
			email:        "alice@x.com",
			expectedCode: "DUPLICATE_EMAIL",
		},
		{
			name:         "username conflict reported before email conflict",
			username:     "alice",
			email:        "alice@x.com",
			expectedCode: "DUPLICATE_USERNAME",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.username, tt.email, "password123")
			require.Error(t, err)
			domainErr := apperrors.ToDomainError(err)
			assert.Equal(t, tt.expectedCode, domainErr.Code)
			assert.Equal(t, 400, domainErr.HTTPStatus)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	repo := newMemUserRepo()
	svc := NewAuthService(testAuthConfig(), repo)

	_, err := svc.Register(ctx, "alice", "alice@x.com", "password123")
	require.NoError(t, err)

	t.Run("wrong password rejected", func(t *testing.T) {
		_, _, _, err := svc.Login(ctx, "alice", "wrong-password")
		require.Error(t, err)
		domainErr := apperrors.ToDomainError(err)
		assert.Equal(t, "INVALID_CREDENTIALS", domainErr.Code)
		assert.Equal(t, 401, domainErr.HTTPStatus)
	})

	t.Run("unknown username looks like wrong password", func(t *testing.T) {
		_, _, _, err := svc.Login(ctx, "nobody", "password123")
		require.Error(t, err)
		assert.Equal(t, "INVALID_CREDENTIALS", apperrors.ToDomainError(err).Code)
	})

	t.Run("valid credentials issue a usable token", func(t *testing.T) {
		user, token, exp, err := svc.Login(ctx, "alice", "password123")
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
		assert.True(t, exp.After(time.Now()))

		subject, err := svc.TokenManager().ParseToken(token)
		require.NoError(t, err)
		assert.Equal(t, "alice", subject)
	})
}
