package dto

import "reviewhub/internal/models"

// CreateTitleDTO for creating a title. Genres and category are passed by slug.
type CreateTitleDTO struct {
	Name        string   `json:"name" binding:"required,max=256"`
	Year        int      `json:"year" binding:"required"`
	Description string   `json:"description"`
	Genre       []string `json:"genre" binding:"required,min=1"`
	Category    string   `json:"category" binding:"required,max=50"`
}

// UpdateTitleDTO for partial title updates; nil fields are left untouched.
type UpdateTitleDTO struct {
	Name        *string  `json:"name" binding:"omitempty,max=256"`
	Year        *int     `json:"year"`
	Description *string  `json:"description"`
	Genre       []string `json:"genre" binding:"omitempty,min=1"`
	Category    *string  `json:"category" binding:"omitempty,max=50"`
}

// TitleFilters narrows and orders title listings.
type TitleFilters struct {
	Name     string `form:"name"`
	Category string `form:"category"`
	Genre    string `form:"genre"`
	Year     int    `form:"year"`
	Ordering string `form:"ordering"` // name, year, rating (prefix "-" for descending)
}

// TitleResponse for returning a title with its derived rating.
// Rating is nil when the title has no reviews yet.
type TitleResponse struct {
	ID          int64            `json:"id"`
	Name        string           `json:"name"`
	Year        int              `json:"year"`
	Rating      *int             `json:"rating"`
	Description string           `json:"description"`
	Genre       []GenreResponse  `json:"genre"`
	Category    CategoryResponse `json:"category"`
}

// FromModelToTitleResponse converts a Title model plus its derived rating.
func FromModelToTitleResponse(title *models.Title, rating *int) *TitleResponse {
	genres := make([]GenreResponse, 0, len(title.Genres))
	for i := range title.Genres {
		genres = append(genres, *FromModelToGenreResponse(&title.Genres[i]))
	}
	return &TitleResponse{
		ID:          title.ID,
		Name:        title.Name,
		Year:        title.Year,
		Rating:      rating,
		Description: title.Description,
		Genre:       genres,
		Category:    *FromModelToCategoryResponse(&title.Category),
	}
}
