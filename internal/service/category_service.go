package service

import (
	"context"
	"errors"

	"reviewhub/internal/dto"
	"reviewhub/internal/models"

	"gorm.io/gorm"
)

// ErrCategoryInUse rejects deleting a category still referenced by titles.
var ErrCategoryInUse = errors.New("category is still referenced by titles")

// CategoryRepository is what the category service needs from storage.
type CategoryRepository interface {
	List(ctx context.Context, search string, page, pageSize int) ([]models.Category, int64, error)
	FindBySlug(ctx context.Context, slug string) (*models.Category, error)
	Create(ctx context.Context, c *models.Category) error
	CountTitles(ctx context.Context, categoryID int64) (int64, error)
	DeleteBySlug(ctx context.Context, slug string) error
}

type CategoryService interface {
	List(ctx context.Context, search string, page, pageSize int) ([]dto.CategoryResponse, int64, error)
	Create(ctx context.Context, input dto.CreateCategoryDTO) (*dto.CategoryResponse, error)
	Delete(ctx context.Context, slug string) error
}

type categoryService struct {
	repo CategoryRepository
}

func NewCategoryService(repo CategoryRepository) CategoryService {
	return &categoryService{repo: repo}
}

func (s *categoryService) List(ctx context.Context, search string, page, pageSize int) ([]dto.CategoryResponse, int64, error) {
	categories, total, err := s.repo.List(ctx, search, page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]dto.CategoryResponse, 0, len(categories))
	for i := range categories {
		responses = append(responses, *dto.FromModelToCategoryResponse(&categories[i]))
	}
	return responses, total, nil
}

func (s *categoryService) Create(ctx context.Context, input dto.CreateCategoryDTO) (*dto.CategoryResponse, error) {
	category := &models.Category{Name: input.Name, Slug: input.Slug}
	if err := s.repo.Create(ctx, category); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			verr := NewValidationError()
			verr.Add("slug", "a category with this name or slug already exists")
			return nil, verr
		}
		return nil, err
	}
	return dto.FromModelToCategoryResponse(category), nil
}

func (s *categoryService) Delete(ctx context.Context, slug string) error {
	category, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	count, err := s.repo.CountTitles(ctx, category.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrCategoryInUse
	}

	if err := s.repo.DeleteBySlug(ctx, slug); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
