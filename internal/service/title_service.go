package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"reviewhub/internal/dto"
	"reviewhub/internal/models"

	"gorm.io/gorm"
)

// TitleRepository is what the title service needs from the storage layer.
type TitleRepository interface {
	List(ctx context.Context, filters dto.TitleFilters, page, pageSize int) ([]models.Title, int64, error)
	GetByID(ctx context.Context, id int64) (*models.Title, error)
	Create(ctx context.Context, t *models.Title) error
	Update(ctx context.Context, t *models.Title) error
	Delete(ctx context.Context, id int64) error
}

// ScoreAverager supplies the mean review score of a title, nil when the
// title has no reviews. Satisfied by the review repository.
type ScoreAverager interface {
	AverageScore(ctx context.Context, titleID int64) (*float64, error)
}

type CategoryFinder interface {
	FindBySlug(ctx context.Context, slug string) (*models.Category, error)
}

type GenreFinder interface {
	FindBySlugs(ctx context.Context, slugs []string) ([]models.Genre, error)
}

type TitleService interface {
	List(ctx context.Context, filters dto.TitleFilters, page, pageSize int) ([]dto.TitleResponse, int64, error)
	Get(ctx context.Context, id int64) (*dto.TitleResponse, error)
	Create(ctx context.Context, input dto.CreateTitleDTO) (*dto.TitleResponse, error)
	Update(ctx context.Context, id int64, input dto.UpdateTitleDTO) (*dto.TitleResponse, error)
	Delete(ctx context.Context, id int64) error
}

type titleService struct {
	titleRepo  TitleRepository
	scores     ScoreAverager
	categories CategoryFinder
	genres     GenreFinder
}

func NewTitleService(titleRepo TitleRepository, scores ScoreAverager, categories CategoryFinder, genres GenreFinder) TitleService {
	return &titleService{
		titleRepo:  titleRepo,
		scores:     scores,
		categories: categories,
		genres:     genres,
	}
}

const minYear = 1000

func (s *titleService) List(ctx context.Context, filters dto.TitleFilters, page, pageSize int) ([]dto.TitleResponse, int64, error) {
	titles, total, err := s.titleRepo.List(ctx, filters, page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]dto.TitleResponse, 0, len(titles))
	for i := range titles {
		rating, err := s.rating(ctx, titles[i].ID)
		if err != nil {
			return nil, 0, err
		}
		responses = append(responses, *dto.FromModelToTitleResponse(&titles[i], rating))
	}
	return responses, total, nil
}

func (s *titleService) Get(ctx context.Context, id int64) (*dto.TitleResponse, error) {
	title, err := s.titleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rating, err := s.rating(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.FromModelToTitleResponse(title, rating), nil
}

func (s *titleService) Create(ctx context.Context, input dto.CreateTitleDTO) (*dto.TitleResponse, error) {
	verr := NewValidationError()
	validateYear(verr, input.Year)

	category, err := s.resolveCategory(ctx, input.Category, verr)
	if err != nil {
		return nil, err
	}
	genres, err := s.resolveGenres(ctx, input.Genre, verr)
	if err != nil {
		return nil, err
	}
	if verr.HasErrors() {
		return nil, verr
	}

	title := &models.Title{
		Name:        input.Name,
		Year:        input.Year,
		Description: input.Description,
		CategoryID:  category.ID,
		Category:    *category,
		Genres:      genres,
	}
	if err := s.titleRepo.Create(ctx, title); err != nil {
		return nil, err
	}

	// a fresh title has no reviews, so its rating is null
	return dto.FromModelToTitleResponse(title, nil), nil
}

func (s *titleService) Update(ctx context.Context, id int64, input dto.UpdateTitleDTO) (*dto.TitleResponse, error) {
	title, err := s.titleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	verr := NewValidationError()
	if input.Year != nil {
		validateYear(verr, *input.Year)
	}
	if input.Category != nil {
		category, err := s.resolveCategory(ctx, *input.Category, verr)
		if err != nil {
			return nil, err
		}
		if category != nil {
			title.CategoryID = category.ID
			title.Category = *category
		}
	}
	if input.Genre != nil {
		genres, err := s.resolveGenres(ctx, input.Genre, verr)
		if err != nil {
			return nil, err
		}
		title.Genres = genres
	}
	if verr.HasErrors() {
		return nil, verr
	}

	if input.Name != nil {
		title.Name = *input.Name
	}
	if input.Year != nil {
		title.Year = *input.Year
	}
	if input.Description != nil {
		title.Description = *input.Description
	}

	if err := s.titleRepo.Update(ctx, title); err != nil {
		return nil, err
	}

	rating, err := s.rating(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.FromModelToTitleResponse(title, rating), nil
}

func (s *titleService) Delete(ctx context.Context, id int64) error {
	if err := s.titleRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// rating computes the derived rating at read time: the arithmetic mean of
// the title's review scores rounded half away from zero, nil when the title
// has no reviews. Nothing is cached, so the value always reflects the
// current review set.
func (s *titleService) rating(ctx context.Context, titleID int64) (*int, error) {
	avg, err := s.scores.AverageScore(ctx, titleID)
	if err != nil {
		return nil, err
	}
	if avg == nil {
		return nil, nil
	}
	rounded := int(math.Round(*avg))
	return &rounded, nil
}

func validateYear(verr *ValidationError, year int) {
	current := time.Now().Year()
	if year < minYear {
		verr.Add("year", fmt.Sprintf("year must be at least %d", minYear))
	}
	if year > current {
		verr.Add("year", fmt.Sprintf("year cannot be later than %d", current))
	}
}

func (s *titleService) resolveCategory(ctx context.Context, slug string, verr *ValidationError) (*models.Category, error) {
	category, err := s.categories.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			verr.Add("category", fmt.Sprintf("unknown category %q", slug))
			return nil, nil
		}
		return nil, err
	}
	return category, nil
}

func (s *titleService) resolveGenres(ctx context.Context, slugs []string, verr *ValidationError) ([]models.Genre, error) {
	if len(slugs) == 0 {
		verr.Add("genre", "at least one genre is required")
		return nil, nil
	}

	genres, err := s.genres.FindBySlugs(ctx, slugs)
	if err != nil {
		return nil, err
	}

	found := make(map[string]bool, len(genres))
	for _, g := range genres {
		found[g.Slug] = true
	}
	for _, slug := range slugs {
		if !found[slug] {
			verr.Add("genre", fmt.Sprintf("unknown genre %q", slug))
		}
	}
	return genres, nil
}
