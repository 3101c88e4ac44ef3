package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"reviewhub/internal/config"
	"reviewhub/internal/models"
	"reviewhub/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// MockUserRepository mocks the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, search string, page, pageSize int) ([]models.User, int64, error) {
	args := m.Called(ctx, search, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]models.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) DeleteByUsername(ctx context.Context, username string) error {
	args := m.Called(ctx, username)
	return args.Error(0)
}

// MockConfirmationStore mocks the ConfirmationStore interface
type MockConfirmationStore struct {
	mock.Mock
}

func (m *MockConfirmationStore) Save(ctx context.Context, userID, codeHash string, ttl time.Duration) error {
	args := m.Called(ctx, userID, codeHash, ttl)
	return args.Error(0)
}

func (m *MockConfirmationStore) Get(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *MockConfirmationStore) Delete(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockMailer mocks the Mailer interface
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(to, subject, body string) error {
	args := m.Called(to, subject, body)
	return args.Error(0)
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:       "test-secret-at-least-32-characters!!",
		TokenTTL:        time.Hour,
		ConfirmationTTL: 24 * time.Hour,
	}
}

func TestSignUp_NewUser(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockCodes := new(MockConfirmationStore)
	mockMailer := new(MockMailer)
	svc := NewAuthService(mockUsers, mockCodes, mockMailer, testConfig())

	mockUsers.On("FindByEmail", mock.Anything, "alice@example.com").Return(nil, gorm.ErrRecordNotFound)
	mockUsers.On("FindByUsername", mock.Anything, "alice").Return(nil, gorm.ErrRecordNotFound)
	mockUsers.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.User).ID = "uuid-1"
		}).Return(nil)
	mockCodes.On("Save", mock.Anything, "uuid-1", mock.AnythingOfType("string"), 24*time.Hour).Return(nil)
	mockMailer.On("Send", "alice@example.com", mock.AnythingOfType("string"), mock.AnythingOfType("string")).Return(nil)

	user, err := svc.SignUp(context.Background(), "alice@example.com", "alice")

	assert.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, models.RoleUser, user.Role)
	mockUsers.AssertExpectations(t)
	mockCodes.AssertExpectations(t)
	mockMailer.AssertExpectations(t)
}

// An identical username/email pair resends the confirmation code instead of
// reporting a conflict.
func TestSignUp_ExistingPairResendsCode(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockCodes := new(MockConfirmationStore)
	mockMailer := new(MockMailer)
	svc := NewAuthService(mockUsers, mockCodes, mockMailer, testConfig())

	existing := &models.User{ID: "uuid-1", Username: "alice", Email: "alice@example.com", Role: models.RoleUser}
	mockUsers.On("FindByEmail", mock.Anything, "alice@example.com").Return(existing, nil)
	mockUsers.On("FindByUsername", mock.Anything, "alice").Return(existing, nil)
	mockCodes.On("Save", mock.Anything, "uuid-1", mock.AnythingOfType("string"), mock.Anything).Return(nil)
	mockMailer.On("Send", "alice@example.com", mock.Anything, mock.Anything).Return(nil)

	user, err := svc.SignUp(context.Background(), "alice@example.com", "alice")

	assert.NoError(t, err)
	assert.Equal(t, "uuid-1", user.ID)
	mockUsers.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSignUp_EmailTakenByOtherUsername(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockCodes := new(MockConfirmationStore)
	mockMailer := new(MockMailer)
	svc := NewAuthService(mockUsers, mockCodes, mockMailer, testConfig())

	mockUsers.On("FindByEmail", mock.Anything, "alice@example.com").
		Return(&models.User{ID: "uuid-1", Username: "alice", Email: "alice@example.com"}, nil)
	mockUsers.On("FindByUsername", mock.Anything, "bob").Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.SignUp(context.Background(), "alice@example.com", "bob")

	verr := &ValidationError{}
	assert.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "email")
	assert.NotContains(t, verr.Fields, "username")
}

func TestSignUp_UsernameTakenByOtherEmail(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockCodes := new(MockConfirmationStore)
	mockMailer := new(MockMailer)
	svc := NewAuthService(mockUsers, mockCodes, mockMailer, testConfig())

	mockUsers.On("FindByEmail", mock.Anything, "new@example.com").Return(nil, gorm.ErrRecordNotFound)
	mockUsers.On("FindByUsername", mock.Anything, "alice").
		Return(&models.User{ID: "uuid-1", Username: "alice", Email: "alice@example.com"}, nil)

	_, err := svc.SignUp(context.Background(), "new@example.com", "alice")

	verr := &ValidationError{}
	assert.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "username")
}

func TestSignUp_ReservedUsername(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockCodes := new(MockConfirmationStore)
	mockMailer := new(MockMailer)
	svc := NewAuthService(mockUsers, mockCodes, mockMailer, testConfig())

	mockUsers.On("FindByEmail", mock.Anything, mock.Anything).Return(nil, gorm.ErrRecordNotFound)
	mockUsers.On("FindByUsername", mock.Anything, mock.Anything).Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.SignUp(context.Background(), "me@example.com", "me")

	verr := &ValidationError{}
	assert.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "username")
}

func TestSignUp_InvalidUsernameCharacters(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockCodes := new(MockConfirmationStore)
	mockMailer := new(MockMailer)
	svc := NewAuthService(mockUsers, mockCodes, mockMailer, testConfig())

	mockUsers.On("FindByEmail", mock.Anything, mock.Anything).Return(nil, gorm.ErrRecordNotFound)
	mockUsers.On("FindByUsername", mock.Anything, mock.Anything).Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.SignUp(context.Background(), "x@example.com", "has spaces!")

	verr := &ValidationError{}
	assert.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "username")
}

// A concurrent signup winning the insert race is reported the same way the
// pre-checks report a taken username or email, not as an internal error.
func TestSignUp_DuplicateRace(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockCodes := new(MockConfirmationStore)
	mockMailer := new(MockMailer)
	svc := NewAuthService(mockUsers, mockCodes, mockMailer, testConfig())

	mockUsers.On("FindByEmail", mock.Anything, mock.Anything).Return(nil, gorm.ErrRecordNotFound)
	mockUsers.On("FindByUsername", mock.Anything, mock.Anything).Return(nil, gorm.ErrRecordNotFound)
	mockUsers.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).
		Return(gorm.ErrDuplicatedKey)

	_, err := svc.SignUp(context.Background(), "alice@example.com", "alice")

	verr := &ValidationError{}
	assert.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "username")
	mockMailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

// A failed confirmation mail fails the whole signup.
func TestSignUp_MailFailureIsHardError(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockCodes := new(MockConfirmationStore)
	mockMailer := new(MockMailer)
	svc := NewAuthService(mockUsers, mockCodes, mockMailer, testConfig())

	mockUsers.On("FindByEmail", mock.Anything, mock.Anything).Return(nil, gorm.ErrRecordNotFound)
	mockUsers.On("FindByUsername", mock.Anything, mock.Anything).Return(nil, gorm.ErrRecordNotFound)
	mockUsers.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.User).ID = "uuid-1"
		}).Return(nil)
	mockCodes.On("Save", mock.Anything, "uuid-1", mock.Anything, mock.Anything).Return(nil)
	mockMailer.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	_, err := svc.SignUp(context.Background(), "alice@example.com", "alice")

	assert.ErrorIs(t, err, ErrMailDelivery)
}

func TestIssueToken_Success(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockCodes := new(MockConfirmationStore)
	mockMailer := new(MockMailer)
	svc := NewAuthService(mockUsers, mockCodes, mockMailer, testConfig())

	hash, err := bcrypt.GenerateFromPassword([]byte("code123"), bcrypt.MinCost)
	assert.NoError(t, err)

	user := &models.User{ID: "uuid-1", Username: "alice", Role: models.RoleUser}
	mockUsers.On("FindByUsername", mock.Anything, "alice").Return(user, nil)
	mockCodes.On("Get", mock.Anything, "uuid-1").Return(string(hash), nil)
	mockCodes.On("Delete", mock.Anything, "uuid-1").Return(nil)

	token, err := svc.IssueToken(context.Background(), "alice", "code123")

	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "uuid-1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, models.RoleUser, claims.Role)
	mockCodes.AssertCalled(t, "Delete", mock.Anything, "uuid-1")
}

func TestIssueToken_WrongCode(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockCodes := new(MockConfirmationStore)
	mockMailer := new(MockMailer)
	svc := NewAuthService(mockUsers, mockCodes, mockMailer, testConfig())

	hash, _ := bcrypt.GenerateFromPassword([]byte("code123"), bcrypt.MinCost)
	mockUsers.On("FindByUsername", mock.Anything, "alice").Return(&models.User{ID: "uuid-1", Username: "alice"}, nil)
	mockCodes.On("Get", mock.Anything, "uuid-1").Return(string(hash), nil)

	_, err := svc.IssueToken(context.Background(), "alice", "wrong")

	assert.ErrorIs(t, err, ErrInvalidCode)
	mockCodes.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestIssueToken_NoPendingCode(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockCodes := new(MockConfirmationStore)
	mockMailer := new(MockMailer)
	svc := NewAuthService(mockUsers, mockCodes, mockMailer, testConfig())

	mockUsers.On("FindByUsername", mock.Anything, "alice").Return(&models.User{ID: "uuid-1", Username: "alice"}, nil)
	mockCodes.On("Get", mock.Anything, "uuid-1").Return("", repository.ErrCodeNotFound)

	_, err := svc.IssueToken(context.Background(), "alice", "code123")

	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestIssueToken_UnknownUser(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockCodes := new(MockConfirmationStore)
	mockMailer := new(MockMailer)
	svc := NewAuthService(mockUsers, mockCodes, mockMailer, testConfig())

	mockUsers.On("FindByUsername", mock.Anything, "ghost").Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.IssueToken(context.Background(), "ghost", "code123")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockCodes := new(MockConfirmationStore)
	mockMailer := new(MockMailer)
	svc := NewAuthService(mockUsers, mockCodes, mockMailer, testConfig())

	otherCfg := testConfig()
	otherCfg.JWTSecret = "a-completely-different-signing-secret"
	other := NewAuthService(mockUsers, mockCodes, mockMailer, otherCfg)

	hash, _ := bcrypt.GenerateFromPassword([]byte("code123"), bcrypt.MinCost)
	mockUsers.On("FindByUsername", mock.Anything, "alice").Return(&models.User{ID: "uuid-1", Username: "alice"}, nil)
	mockCodes.On("Get", mock.Anything, "uuid-1").Return(string(hash), nil)
	mockCodes.On("Delete", mock.Anything, "uuid-1").Return(nil)

	token, err := svc.IssueToken(context.Background(), "alice", "code123")
	assert.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
