package service

import (
	"context"
	"testing"

	"reviewhub/internal/dto"
	"reviewhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// MockReviewRepository mocks the ReviewRepository interface
type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) Create(ctx context.Context, review *models.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *MockReviewRepository) Update(ctx context.Context, review *models.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *MockReviewRepository) Delete(ctx context.Context, titleID, reviewID int64) error {
	args := m.Called(ctx, titleID, reviewID)
	return args.Error(0)
}

func (m *MockReviewRepository) GetByID(ctx context.Context, titleID, reviewID int64) (*models.Review, error) {
	args := m.Called(ctx, titleID, reviewID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *MockReviewRepository) ListByTitle(ctx context.Context, titleID int64, page, pageSize int) ([]models.Review, int64, error) {
	args := m.Called(ctx, titleID, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]models.Review), args.Get(1).(int64), args.Error(2)
}

func (m *MockReviewRepository) ExistsForAuthor(ctx context.Context, titleID int64, authorID string) (bool, error) {
	args := m.Called(ctx, titleID, authorID)
	return args.Bool(0), args.Error(1)
}

func (m *MockReviewRepository) AverageScore(ctx context.Context, titleID int64) (*float64, error) {
	args := m.Called(ctx, titleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*float64), args.Error(1)
}

// MockTitleGetter mocks the TitleGetter interface
type MockTitleGetter struct {
	mock.Mock
}

func (m *MockTitleGetter) GetByID(ctx context.Context, id int64) (*models.Title, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Title), args.Error(1)
}

func TestCreateReview_Success(t *testing.T) {
	mockRepo := new(MockReviewRepository)
	mockTitles := new(MockTitleGetter)
	svc := NewReviewService(mockRepo, mockTitles)
	actor := Actor{ID: "user-1", Username: "alice", Role: models.RoleUser}

	mockTitles.On("GetByID", mock.Anything, int64(1)).Return(&models.Title{ID: 1}, nil)
	mockRepo.On("ExistsForAuthor", mock.Anything, int64(1), "user-1").Return(false, nil)
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Review")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.Review).ID = 42
		}).Return(nil)
	mockRepo.On("GetByID", mock.Anything, int64(1), int64(42)).Return(&models.Review{
		ID:      42,
		TitleID: 1,
		Text:    "great",
		Score:   9,
		Author:  models.User{Username: "alice"},
	}, nil)

	resp, err := svc.Create(context.Background(), 1, actor, dto.CreateReviewDTO{Text: "great", Score: 9})

	assert.NoError(t, err)
	assert.Equal(t, int64(42), resp.ID)
	assert.Equal(t, "alice", resp.Author)
	mockRepo.AssertExpectations(t)
}

func TestCreateReview_Duplicate(t *testing.T) {
	mockRepo := new(MockReviewRepository)
	mockTitles := new(MockTitleGetter)
	svc := NewReviewService(mockRepo, mockTitles)
	actor := Actor{ID: "user-1", Username: "alice", Role: models.RoleUser}

	mockTitles.On("GetByID", mock.Anything, int64(1)).Return(&models.Title{ID: 1}, nil)
	mockRepo.On("ExistsForAuthor", mock.Anything, int64(1), "user-1").Return(true, nil)

	_, err := svc.Create(context.Background(), 1, actor, dto.CreateReviewDTO{Text: "again", Score: 5})

	assert.ErrorIs(t, err, ErrDuplicateReview)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// A concurrent writer can slip past the existence pre-check; the unique
// index violation must map to the same duplicate error.
func TestCreateReview_DuplicateRace(t *testing.T) {
	mockRepo := new(MockReviewRepository)
	mockTitles := new(MockTitleGetter)
	svc := NewReviewService(mockRepo, mockTitles)
	actor := Actor{ID: "user-1", Username: "alice", Role: models.RoleUser}

	mockTitles.On("GetByID", mock.Anything, int64(1)).Return(&models.Title{ID: 1}, nil)
	mockRepo.On("ExistsForAuthor", mock.Anything, int64(1), "user-1").Return(false, nil)
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Review")).Return(gorm.ErrDuplicatedKey)

	_, err := svc.Create(context.Background(), 1, actor, dto.CreateReviewDTO{Text: "race", Score: 5})

	assert.ErrorIs(t, err, ErrDuplicateReview)
}

func TestCreateReview_ScoreBounds(t *testing.T) {
	mockRepo := new(MockReviewRepository)
	mockTitles := new(MockTitleGetter)
	svc := NewReviewService(mockRepo, mockTitles)
	actor := Actor{ID: "user-1", Username: "alice", Role: models.RoleUser}

	mockTitles.On("GetByID", mock.Anything, int64(1)).Return(&models.Title{ID: 1}, nil)

	_, err := svc.Create(context.Background(), 1, actor, dto.CreateReviewDTO{Text: "x", Score: 0})
	assert.ErrorIs(t, err, ErrScoreTooLow)

	_, err = svc.Create(context.Background(), 1, actor, dto.CreateReviewDTO{Text: "x", Score: 11})
	assert.ErrorIs(t, err, ErrScoreTooHigh)

	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateReview_BoundaryScoresAccepted(t *testing.T) {
	for _, score := range []int{1, 10} {
		mockRepo := new(MockReviewRepository)
		mockTitles := new(MockTitleGetter)
		svc := NewReviewService(mockRepo, mockTitles)
		actor := Actor{ID: "user-1", Username: "alice", Role: models.RoleUser}

		mockTitles.On("GetByID", mock.Anything, int64(1)).Return(&models.Title{ID: 1}, nil)
		mockRepo.On("ExistsForAuthor", mock.Anything, int64(1), "user-1").Return(false, nil)
		mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Review")).
			Run(func(args mock.Arguments) {
				args.Get(1).(*models.Review).ID = 7
			}).Return(nil)
		mockRepo.On("GetByID", mock.Anything, int64(1), int64(7)).Return(&models.Review{
			ID: 7, TitleID: 1, Score: score, Author: models.User{Username: "alice"},
		}, nil)

		resp, err := svc.Create(context.Background(), 1, actor, dto.CreateReviewDTO{Text: "ok", Score: score})
		assert.NoError(t, err)
		assert.Equal(t, score, resp.Score)
	}
}

func TestCreateReview_TitleNotFound(t *testing.T) {
	mockRepo := new(MockReviewRepository)
	mockTitles := new(MockTitleGetter)
	svc := NewReviewService(mockRepo, mockTitles)
	actor := Actor{ID: "user-1", Username: "alice", Role: models.RoleUser}

	mockTitles.On("GetByID", mock.Anything, int64(99)).Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.Create(context.Background(), 99, actor, dto.CreateReviewDTO{Text: "x", Score: 5})

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateReview_ForbiddenForOtherUser(t *testing.T) {
	mockRepo := new(MockReviewRepository)
	mockTitles := new(MockTitleGetter)
	svc := NewReviewService(mockRepo, mockTitles)
	actor := Actor{ID: "user-2", Username: "bob", Role: models.RoleUser}

	mockRepo.On("GetByID", mock.Anything, int64(1), int64(42)).Return(&models.Review{
		ID: 42, TitleID: 1, AuthorID: "user-1",
	}, nil)

	text := "edited"
	_, err := svc.Update(context.Background(), 1, 42, actor, dto.UpdateReviewDTO{Text: &text})

	assert.ErrorIs(t, err, ErrForbidden)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateReview_ModeratorMayEdit(t *testing.T) {
	mockRepo := new(MockReviewRepository)
	mockTitles := new(MockTitleGetter)
	svc := NewReviewService(mockRepo, mockTitles)
	actor := Actor{ID: "mod-1", Username: "mod", Role: models.RoleModerator}

	mockRepo.On("GetByID", mock.Anything, int64(1), int64(42)).Return(&models.Review{
		ID: 42, TitleID: 1, AuthorID: "user-1", Text: "old", Score: 3,
	}, nil)
	mockRepo.On("Update", mock.Anything, mock.AnythingOfType("*models.Review")).Return(nil)

	text := "moderated"
	resp, err := svc.Update(context.Background(), 1, 42, actor, dto.UpdateReviewDTO{Text: &text})

	assert.NoError(t, err)
	assert.Equal(t, "moderated", resp.Text)
	mockRepo.AssertExpectations(t)
}

func TestDeleteReview_AuthorMayDelete(t *testing.T) {
	mockRepo := new(MockReviewRepository)
	mockTitles := new(MockTitleGetter)
	svc := NewReviewService(mockRepo, mockTitles)
	actor := Actor{ID: "user-1", Username: "alice", Role: models.RoleUser}

	mockRepo.On("GetByID", mock.Anything, int64(1), int64(42)).Return(&models.Review{
		ID: 42, TitleID: 1, AuthorID: "user-1",
	}, nil)
	mockRepo.On("Delete", mock.Anything, int64(1), int64(42)).Return(nil)

	err := svc.Delete(context.Background(), 1, 42, actor)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestDeleteReview_NotFound(t *testing.T) {
	mockRepo := new(MockReviewRepository)
	mockTitles := new(MockTitleGetter)
	svc := NewReviewService(mockRepo, mockTitles)
	actor := Actor{ID: "user-1", Username: "alice", Role: models.RoleUser}

	mockRepo.On("GetByID", mock.Anything, int64(1), int64(99)).Return(nil, gorm.ErrRecordNotFound)

	err := svc.Delete(context.Background(), 1, 99, actor)

	assert.ErrorIs(t, err, ErrNotFound)
}
