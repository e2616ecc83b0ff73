package auth

import (
	"context"
	"testing"
	"time"

	"app/internal/domain/model"
	"app/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepoMock) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

type verifierStub struct {
	ok bool
}

func (v *verifierStub) Verify(plain string, hashed string) bool { return v.ok }

type issuerStub struct{}

func (i *issuerStub) Issue(userID int64, role model.Role, now time.Time) (string, time.Time, error) {
	return "token-abc", now.Add(time.Hour), nil
}

type stubClock struct {
	now time.Time
}

func (c *stubClock) Now() time.Time { return c.now }

// =====================
// Register
// =====================

func TestRegister_Success(t *testing.T) {
	ctx := context.Background()
	userRepo := new(UserRepoMock)
	uc := NewRegisterUserUsecase(userRepo, NewBcryptPasswordHasher(4), &stubClock{now: time.Now()})

	userRepo.On("FindByEmail", mock.Anything, "a@example.com").Return((*model.User)(nil), repository.ErrUserNotFound)
	userRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.Email == "a@example.com" &&
			u.Role == model.RoleUser &&
			u.IsActive &&
			u.PasswordHash != "" && u.PasswordHash != "password123"
	})).Return(nil)

	out, err := uc.Execute(ctx, RegisterUserInput{Email: "a@example.com", Password: "password123"})
	assert.NoError(t, err)
	assert.Equal(t, "a@example.com", out.User.Email)
	userRepo.AssertExpectations(t)
}

func TestRegister_InvalidEmail(t *testing.T) {
	uc := NewRegisterUserUsecase(new(UserRepoMock), NewBcryptPasswordHasher(4), &stubClock{now: time.Now()})

	_, err := uc.Execute(context.Background(), RegisterUserInput{Email: "not-an-email", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidEmailFormat)
}

func TestRegister_PasswordTooShort(t *testing.T) {
	uc := NewRegisterUserUsecase(new(UserRepoMock), NewBcryptPasswordHasher(4), &stubClock{now: time.Now()})

	_, err := uc.Execute(context.Background(), RegisterUserInput{Email: "a@example.com", Password: "short"})
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	userRepo := new(UserRepoMock)
	uc := NewRegisterUserUsecase(userRepo, NewBcryptPasswordHasher(4), &stubClock{now: time.Now()})

	userRepo.On("FindByEmail", mock.Anything, "a@example.com").Return(&model.User{ID: 1, Email: "a@example.com"}, nil)

	_, err := uc.Execute(ctx, RegisterUserInput{Email: "a@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
	userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// =====================
// Login
// =====================

func TestLogin_Success(t *testing.T) {
	ctx := context.Background()
	userRepo := new(UserRepoMock)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	uc := NewLoginUsecase(userRepo, &verifierStub{ok: true}, &issuerStub{}, &stubClock{now: now})

	userRepo.On("FindByEmail", mock.Anything, "a@example.com").Return(&model.User{
		ID:           1,
		Email:        "a@example.com",
		PasswordHash: "hashed",
		Role:         model.RoleUser,
		IsActive:     true,
	}, nil)
	userRepo.On("Update", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.LastLoginAt != nil && u.LastLoginAt.Equal(now)
	})).Return(nil)

	out, err := uc.Execute(ctx, LoginInput{Email: "a@example.com", Password: "password123"})
	assert.NoError(t, err)
	assert.Equal(t, "token-abc", out.AccessToken)
	//レスポンスにハッシュは出さない
	assert.Empty(t, out.User.PasswordHash)
	userRepo.AssertExpectations(t)
}

func TestLogin_WrongPassword(t *testing.T) {
	ctx := context.Background()
	userRepo := new(UserRepoMock)
	uc := NewLoginUsecase(userRepo, &verifierStub{ok: false}, &issuerStub{}, &stubClock{now: time.Now()})

	userRepo.On("FindByEmail", mock.Anything, "a@example.com").Return(&model.User{
		ID: 1, PasswordHash: "hashed", IsActive: true,
	}, nil)

	_, err := uc.Execute(ctx, LoginInput{Email: "a@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownEmailLooksSame(t *testing.T) {
	ctx := context.Background()
	userRepo := new(UserRepoMock)
	uc := NewLoginUsecase(userRepo, &verifierStub{ok: true}, &issuerStub{}, &stubClock{now: time.Now()})

	//存在しないemailもパスワード不一致と同じエラー
	userRepo.On("FindByEmail", mock.Anything, "nobody@example.com").Return((*model.User)(nil), repository.ErrUserNotFound)

	_, err := uc.Execute(ctx, LoginInput{Email: "nobody@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_DisabledAccount(t *testing.T) {
	ctx := context.Background()
	userRepo := new(UserRepoMock)
	uc := NewLoginUsecase(userRepo, &verifierStub{ok: true}, &issuerStub{}, &stubClock{now: time.Now()})

	userRepo.On("FindByEmail", mock.Anything, "a@example.com").Return(&model.User{
		ID: 1, PasswordHash: "hashed", IsActive: false,
	}, nil)

	_, err := uc.Execute(ctx, LoginInput{Email: "a@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrAccountDisabled)
}
