package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "classsite/internal/errors"
	"classsite/internal/logging"
	"classsite/internal/model"
	"classsite/internal/repository"
)

func newUserServiceFixture() (UserService, *MockUserRepository, *repository.MemoryLoginAttemptRepository, *countingHasher) {
	users := new(MockUserRepository)
	ledger := repository.NewMemoryLoginAttemptRepository()
	hasher := newCountingHasher()
	return NewUserService(users, ledger, hasher, logging.Discard(), 6), users, ledger, hasher
}

func TestUserService_CreateUser(t *testing.T) {
	svc, users, _, hasher := newUserServiceFixture()
	ctx := context.Background()

	users.On("FindByAccount", mock.Anything, "s01").Return(nil, apperrors.ErrNotFound)
	users.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).
		Run(func(args mock.Arguments) { args.Get(1).(*model.User).ID = 11 }).
		Return(nil)

	user, err := svc.CreateUser(ctx, CreateUserInput{Account: " s01 ", Name: "Amy", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, uint(11), user.ID)
	assert.Equal(t, "s01", user.Account)
	assert.Equal(t, model.RoleStudent, user.Role)
	assert.True(t, user.Enabled)
	assert.NotEqual(t, "secret1", user.PasswordHash)
	assert.True(t, hasher.Verify("secret1", user.PasswordHash))
}

func TestUserService_CreateUserValidation(t *testing.T) {
	svc, users, _, _ := newUserServiceFixture()
	ctx := context.Background()

	tests := map[string]CreateUserInput{
		"missing account": {Account: "  ", Password: "secret1"},
		"short password":  {Account: "s02", Password: "12345"},
		"bad role":        {Account: "s03", Password: "secret1", Role: "principal"},
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateUser(ctx, in)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUserService_CreateUserConflict(t *testing.T) {
	svc, users, _, _ := newUserServiceFixture()
	users.On("FindByAccount", mock.Anything, "taken").Return(&model.User{ID: 1, Account: "taken"}, nil)

	_, err := svc.CreateUser(context.Background(), CreateUserInput{Account: "taken", Password: "secret1"})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUserService_UpdateUser(t *testing.T) {
	svc, users, _, hasher := newUserServiceFixture()
	existing := &model.User{ID: 5, Account: "t1", Name: "Old", Role: model.RoleTeacher, Enabled: true, PasswordHash: "old"}
	users.On("FindByID", mock.Anything, uint(5)).Return(existing, nil)
	users.On("Update", mock.Anything, existing).Return(nil)

	role := model.RoleStudent
	disabled := false
	blank := "   "
	user, err := svc.UpdateUser(context.Background(), 5, UpdateUserInput{Role: &role, Enabled: &disabled, Password: &blank})
	require.NoError(t, err)
	assert.Equal(t, model.RoleStudent, user.Role)
	assert.False(t, user.Enabled)
	assert.Equal(t, "Old", user.Name)
	assert.Equal(t, "old", user.PasswordHash, "blank password is ignored")

	newPassword := "newsecret"
	user, err = svc.UpdateUser(context.Background(), 5, UpdateUserInput{Password: &newPassword})
	require.NoError(t, err)
	assert.True(t, hasher.Verify("newsecret", user.PasswordHash))

	short := "abc"
	_, err = svc.UpdateUser(context.Background(), 5, UpdateUserInput{Password: &short})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestUserService_UpdateMissingUser(t *testing.T) {
	svc, users, _, _ := newUserServiceFixture()
	users.On("FindByID", mock.Anything, uint(99)).Return(nil, apperrors.ErrNotFound)

	_, err := svc.UpdateUser(context.Background(), 99, UpdateUserInput{})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUserService_ResetPassword(t *testing.T) {
	svc, users, _, hasher := newUserServiceFixture()
	existing := &model.User{ID: 5, Account: "t1", PasswordHash: "old"}
	users.On("FindByID", mock.Anything, uint(5)).Return(existing, nil)
	users.On("Update", mock.Anything, existing).Return(nil)

	assert.ErrorIs(t, svc.ResetPassword(context.Background(), 5, "short"), apperrors.ErrValidation)

	require.NoError(t, svc.ResetPassword(context.Background(), 5, " longenough "))
	assert.True(t, hasher.Verify("longenough", existing.PasswordHash))
}

func TestUserService_Unlock(t *testing.T) {
	svc, users, ledger, _ := newUserServiceFixture()
	ctx := context.Background()
	now := time.Now()
	users.On("FindByID", mock.Anything, uint(5)).Return(&model.User{ID: 5, Account: "t1"}, nil)

	for i := 0; i < 6; i++ {
		_, err := ledger.RecordFailure(ctx, "t1", now, model.DefaultLockoutPolicy())
		require.NoError(t, err)
	}
	a, _ := ledger.Get(ctx, "t1")
	require.True(t, a.IsLocked(now))

	require.NoError(t, svc.Unlock(ctx, 5))
	a, _ = ledger.Get(ctx, "t1")
	assert.False(t, a.IsLocked(now))
	assert.Equal(t, 0, a.FailedCount)
}

func TestUserService_EnsureAdmin(t *testing.T) {
	svc, users, _, _ := newUserServiceFixture()
	ctx := context.Background()

	users.On("CountByRole", mock.Anything, model.RoleAdmin).Return(int64(0), nil).Once()
	users.On("FindByAccount", mock.Anything, "admin").Return(nil, apperrors.ErrNotFound)
	users.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.Account == "admin" && u.Role == model.RoleAdmin && u.Enabled
	})).Return(nil).Once()

	created, err := svc.EnsureAdmin(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.True(t, created)

	users.On("CountByRole", mock.Anything, model.RoleAdmin).Return(int64(1), nil)
	created, err = svc.EnsureAdmin(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.False(t, created)

	users.AssertNumberOfCalls(t, "Create", 1)
}

func TestUserService_PasswordLongerThanBcryptLimit(t *testing.T) {
	svc, users, _, hasher := newUserServiceFixture()
	ctx := context.Background()
	tooLong := strings.Repeat("a", 73)

	existing := &model.User{ID: 5, Account: "t1", PasswordHash: "old"}
	users.On("FindByID", mock.Anything, uint(5)).Return(existing, nil)

	_, err := svc.CreateUser(ctx, CreateUserInput{Account: "bob", Password: tooLong})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.UpdateUser(ctx, 5, UpdateUserInput{Password: &tooLong})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	assert.ErrorIs(t, svc.ResetPassword(ctx, 5, tooLong), apperrors.ErrValidation)
	assert.Equal(t, "old", existing.PasswordHash)
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)

	// Exactly 72 bytes is still accepted.
	longest := strings.Repeat("b", 72)
	users.On("FindByAccount", mock.Anything, "carol").Return(nil, apperrors.ErrNotFound)
	users.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)

	user, err := svc.CreateUser(ctx, CreateUserInput{Account: "carol", Password: longest})
	require.NoError(t, err)
	assert.True(t, hasher.Verify(longest, user.PasswordHash))
}
