package service

import (
	"context"
	"errors"

	"reviewhub/internal/dto"
	"reviewhub/internal/models"

	"gorm.io/gorm"
)

// GenreRepository is what the genre service needs from storage.
type GenreRepository interface {
	List(ctx context.Context, search string, page, pageSize int) ([]models.Genre, int64, error)
	Create(ctx context.Context, g *models.Genre) error
	DeleteBySlug(ctx context.Context, slug string) error
}

type GenreService interface {
	List(ctx context.Context, search string, page, pageSize int) ([]dto.GenreResponse, int64, error)
	Create(ctx context.Context, input dto.CreateGenreDTO) (*dto.GenreResponse, error)
	Delete(ctx context.Context, slug string) error
}

type genreService struct {
	repo GenreRepository
}

func NewGenreService(repo GenreRepository) GenreService {
	return &genreService{repo: repo}
}

func (s *genreService) List(ctx context.Context, search string, page, pageSize int) ([]dto.GenreResponse, int64, error) {
	genres, total, err := s.repo.List(ctx, search, page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]dto.GenreResponse, 0, len(genres))
	for i := range genres {
		responses = append(responses, *dto.FromModelToGenreResponse(&genres[i]))
	}
	return responses, total, nil
}

func (s *genreService) Create(ctx context.Context, input dto.CreateGenreDTO) (*dto.GenreResponse, error) {
	genre := &models.Genre{Name: input.Name, Slug: input.Slug}
	if err := s.repo.Create(ctx, genre); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			verr := NewValidationError()
			verr.Add("slug", "a genre with this name or slug already exists")
			return nil, verr
		}
		return nil, err
	}
	return dto.FromModelToGenreResponse(genre), nil
}

func (s *genreService) Delete(ctx context.Context, slug string) error {
	if err := s.repo.DeleteBySlug(ctx, slug); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
