package models

// explicit join model so the bulk loader can import genre_title rows directly
type TitleGenre struct {
	ID      int64 `json:"id" gorm:"primaryKey;autoIncrement"`
	TitleID int64 `json:"title_id" gorm:"not null;uniqueIndex:uniq_title_genre"`
	GenreID int64 `json:"genre_id" gorm:"not null;uniqueIndex:uniq_title_genre"`
}

func (TitleGenre) TableName() string {
	return "title_genres"
}
