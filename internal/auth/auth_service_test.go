package auth_test

import (
	"context"
	"errors"
	"testing"

	"go-payroll/internal/auth"
	autherrors "go-payroll/internal/auth/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

type fakeAuthRepo struct {
	user *auth.User
}

func (f *fakeAuthRepo) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	if f.user == nil || f.user.Email != email {
		return nil, errors.New("record not found")
	}
	return f.user, nil
}

func (f *fakeAuthRepo) GetByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	if f.user == nil || f.user.ID != id {
		return nil, errors.New("record not found")
	}
	return f.user, nil
}

func testUser(t *testing.T, password string) *auth.User {
	t.Helper()
	pw, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	assert.NoError(t, err)
	return &auth.User{
		ID:         uuid.New(),
		EntityID:   uuid.New(),
		EmployeeID: uuid.New(),
		Name:       "Jordan Miles",
		Email:      "jordan@example.com",
		Password:   string(pw),
		Role:       "PAYROLL_SPECIALIST",
		Active:     true,
	}
}

func TestService_Login(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	ctx := context.Background()

	user := testUser(t, "password123")
	service := auth.NewService(&fakeAuthRepo{user: user})

	t.Run("success", func(t *testing.T) {
		token, refreshToken, resp, err := service.Login(ctx, user.Email, "password123")

		assert.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.NotEmpty(t, refreshToken)
		assert.Equal(t, user.Email, resp.Email)
		assert.Equal(t, user.EntityID.String(), resp.EntityID)
		assert.Equal(t, user.Role, resp.Role)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, _, err := service.Login(ctx, user.Email, "wrongpass")
		assert.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, _, _, err := service.Login(ctx, "nobody@example.com", "password123")
		assert.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
	})

	t.Run("inactive user", func(t *testing.T) {
		inactive := testUser(t, "password123")
		inactive.Active = false
		svc := auth.NewService(&fakeAuthRepo{user: inactive})

		_, _, _, err := svc.Login(ctx, inactive.Email, "password123")
		assert.ErrorIs(t, err, autherrors.ErrUserInactive)
	})
}

func TestService_RefreshToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	ctx := context.Background()

	user := testUser(t, "password123")
	service := auth.NewService(&fakeAuthRepo{user: user})

	_, refreshToken, _, err := service.Login(ctx, user.Email, "password123")
	assert.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		newAccess, newRefresh, resp, err := service.RefreshToken(ctx, refreshToken)

		assert.NoError(t, err)
		assert.NotEmpty(t, newAccess)
		assert.NotEmpty(t, newRefresh)
		assert.Equal(t, user.Email, resp.Email)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, _, _, err := service.RefreshToken(ctx, "not-a-token")
		assert.ErrorIs(t, err, autherrors.ErrInvalidToken)
	})
}
