package repository

import (
	"context"
	"fmt"
	"strings"

	"reviewhub/internal/dto"
	"reviewhub/internal/models"

	"gorm.io/gorm"
)

type TitleRepo struct {
	db *gorm.DB
}

func NewTitleRepo(db *gorm.DB) *TitleRepo {
	return &TitleRepo{db: db}
}

// List applies the title filters and ordering. Ordering by rating joins the
// reviews table and sorts on the aggregated average; unrated titles sort last.
func (r *TitleRepo) List(ctx context.Context, filters dto.TitleFilters, page, pageSize int) ([]models.Title, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Title{}).
		Joins("JOIN categories ON categories.id = titles.category_id")

	if filters.Category != "" {
		q = q.Where("categories.slug = ?", filters.Category)
	}
	if filters.Genre != "" {
		q = q.Joins("JOIN title_genres tg ON tg.title_id = titles.id").
			Joins("JOIN genres ON genres.id = tg.genre_id").
			Where("genres.slug = ?", filters.Genre)
	}
	if filters.Name != "" {
		q = q.Where("titles.name ILIKE ?", "%"+filters.Name+"%")
	}
	if filters.Year != 0 {
		q = q.Where("titles.year = ?", filters.Year)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Distinct("titles.id").Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count titles: %w", err)
	}

	desc := strings.HasPrefix(filters.Ordering, "-")
	key := strings.TrimPrefix(filters.Ordering, "-")
	dir := "asc"
	if desc {
		dir = "desc"
	}

	switch key {
	case "year":
		q = q.Order("titles.year " + dir)
	case "rating":
		q = q.Joins("LEFT JOIN reviews ON reviews.title_id = titles.id").
			Group("titles.id").
			Select("titles.*").
			Order(fmt.Sprintf("AVG(reviews.score) %s NULLS LAST", dir))
	case "name", "":
		q = q.Order("titles.name " + dir)
	default:
		q = q.Order("titles.name " + dir)
	}

	var list []models.Title
	offset := (page - 1) * pageSize
	if err := q.Preload("Genres").Preload("Category").
		Limit(pageSize).Offset(offset).Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list titles: %w", err)
	}
	return list, total, nil
}

func (r *TitleRepo) GetByID(ctx context.Context, id int64) (*models.Title, error) {
	var t models.Title
	if err := r.db.WithContext(ctx).Preload("Genres").Preload("Category").First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TitleRepo) Create(ctx context.Context, t *models.Title) error {
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("create title: %w", err)
	}
	return nil
}

func (r *TitleRepo) Update(ctx context.Context, t *models.Title) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(t).Association("Genres").Replace(t.Genres); err != nil {
			return fmt.Errorf("replace genres: %w", err)
		}
		if err := tx.Omit("Genres").Save(t).Error; err != nil {
			return fmt.Errorf("update title: %w", err)
		}
		return nil
	})
}

// Delete removes the title; reviews, their comments and the genre links go
// with it via the FK cascade.
func (r *TitleRepo) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Select("Genres").Delete(&models.Title{ID: id})
	if result.Error != nil {
		return fmt.Errorf("delete title: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
