package loader

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"reviewhub/internal/models"

	"gorm.io/gorm"
)

// Specs returns the importable entity types of the review domain with their
// file names and dependencies. File names follow the dataset layout; any
// entity without an explicit name falls back to <name>.csv.
func Specs() []EntitySpec {
	return []EntitySpec{
		{Name: "user", FileName: "users.csv", Load: loadUser},
		{Name: "category", Load: loadCategory},
		{Name: "genre", Load: loadGenre},
		{Name: "title", FileName: "titles.csv", DependsOn: []string{"category"}, Load: loadTitle},
		{Name: "title_genre", FileName: "genre_title.csv", DependsOn: []string{"title", "genre"}, Load: loadTitleGenre},
		{Name: "review", DependsOn: []string{"title", "user"}, Load: loadReview},
		{Name: "comment", FileName: "comments.csv", DependsOn: []string{"review", "user"}, Load: loadComment},
	}
}

func loadUser(ctx context.Context, tx *gorm.DB, refs *RefMap, row Row) (bool, error) {
	role := row["role"]
	if role == "" {
		role = models.RoleUser
	}
	if !models.ValidRole(role) {
		return false, fmt.Errorf("unknown role %q", role)
	}

	user := models.User{}
	result := tx.WithContext(ctx).
		Where(models.User{Username: row["username"]}).
		Attrs(models.User{
			Email:     row["email"],
			Role:      role,
			FirstName: row["first_name"],
			LastName:  row["last_name"],
			Bio:       row["bio"],
		}).
		FirstOrCreate(&user)
	if result.Error != nil {
		return false, result.Error
	}

	// CSV ids are numeric while the real key is a UUID, so dependent rows
	// resolve through the run's reference map.
	refs.Put("user", row["id"], user.ID)
	return result.RowsAffected > 0, nil
}

func loadCategory(ctx context.Context, tx *gorm.DB, refs *RefMap, row Row) (bool, error) {
	category := models.Category{}
	result := tx.WithContext(ctx).
		Where(models.Category{Slug: row["slug"]}).
		Attrs(models.Category{Name: row["name"]}).
		FirstOrCreate(&category)
	if result.Error != nil {
		return false, result.Error
	}

	refs.Put("category", row["id"], category.ID)
	return result.RowsAffected > 0, nil
}

func loadGenre(ctx context.Context, tx *gorm.DB, refs *RefMap, row Row) (bool, error) {
	genre := models.Genre{}
	result := tx.WithContext(ctx).
		Where(models.Genre{Slug: row["slug"]}).
		Attrs(models.Genre{Name: row["name"]}).
		FirstOrCreate(&genre)
	if result.Error != nil {
		return false, result.Error
	}

	refs.Put("genre", row["id"], genre.ID)
	return result.RowsAffected > 0, nil
}

func loadTitle(ctx context.Context, tx *gorm.DB, refs *RefMap, row Row) (bool, error) {
	categoryID, err := resolveInt(ctx, tx, refs, "category", &models.Category{}, row["category"])
	if err != nil {
		return false, err
	}

	year, err := strconv.Atoi(row["year"])
	if err != nil {
		return false, fmt.Errorf("invalid year %q", row["year"])
	}

	title := models.Title{}
	result := tx.WithContext(ctx).
		Where(models.Title{Name: row["name"], Year: year, CategoryID: categoryID}).
		FirstOrCreate(&title)
	if result.Error != nil {
		return false, result.Error
	}

	refs.Put("title", row["id"], title.ID)
	return result.RowsAffected > 0, nil
}

func loadTitleGenre(ctx context.Context, tx *gorm.DB, refs *RefMap, row Row) (bool, error) {
	titleID, err := resolveInt(ctx, tx, refs, "title", &models.Title{}, row["title_id"])
	if err != nil {
		return false, err
	}
	genreID, err := resolveInt(ctx, tx, refs, "genre", &models.Genre{}, row["genre_id"])
	if err != nil {
		return false, err
	}

	link := models.TitleGenre{}
	result := tx.WithContext(ctx).
		Where(models.TitleGenre{TitleID: titleID, GenreID: genreID}).
		FirstOrCreate(&link)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func loadReview(ctx context.Context, tx *gorm.DB, refs *RefMap, row Row) (bool, error) {
	titleID, err := resolveInt(ctx, tx, refs, "title", &models.Title{}, row["title_id"])
	if err != nil {
		return false, err
	}
	authorID, err := resolveUser(refs, row["author"])
	if err != nil {
		return false, err
	}

	score, err := strconv.Atoi(row["score"])
	if err != nil {
		return false, fmt.Errorf("invalid score %q", row["score"])
	}

	review := models.Review{}
	result := tx.WithContext(ctx).
		Where(models.Review{TitleID: titleID, AuthorID: authorID}).
		Attrs(models.Review{
			Text:    row["text"],
			Score:   score,
			PubDate: parseTimestamp(row["pub_date"]),
		}).
		FirstOrCreate(&review)
	if result.Error != nil {
		return false, result.Error
	}

	refs.Put("review", row["id"], review.ID)
	return result.RowsAffected > 0, nil
}

func loadComment(ctx context.Context, tx *gorm.DB, refs *RefMap, row Row) (bool, error) {
	reviewID, err := resolveInt(ctx, tx, refs, "review", &models.Review{}, row["review_id"])
	if err != nil {
		return false, err
	}
	authorID, err := resolveUser(refs, row["author"])
	if err != nil {
		return false, err
	}

	comment := models.Comment{}
	result := tx.WithContext(ctx).
		Where(models.Comment{ReviewID: reviewID, AuthorID: authorID, Text: row["text"]}).
		Attrs(models.Comment{PubDate: parseTimestamp(row["pub_date"])}).
		FirstOrCreate(&comment)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// resolveInt maps a CSV foreign-key identifier onto an integer primary key:
// first through the run's reference map, then by looking the key up in the
// referenced table.
func resolveInt(ctx context.Context, tx *gorm.DB, refs *RefMap, entity string, model any, value string) (int64, error) {
	if pk, ok := refs.Get(entity, value); ok {
		if id, ok := pk.(int64); ok {
			return id, nil
		}
	}

	id, err := ParseIntRef(entity, value)
	if err != nil {
		return 0, err
	}
	if err := tx.WithContext(ctx).First(model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, &MissingReferenceError{Entity: entity, ID: value}
		}
		return 0, err
	}
	return id, nil
}

// resolveUser maps a CSV user identifier onto the user's UUID key. Users
// only ever resolve through the reference map: their CSV ids are numeric
// while the stored key is a UUID, and dependency ordering guarantees the
// users file has been processed first.
func resolveUser(refs *RefMap, value string) (string, error) {
	if pk, ok := refs.Get("user", value); ok {
		if id, ok := pk.(string); ok {
			return id, nil
		}
	}
	if _, err := ParseIntRef("user", value); err != nil {
		return "", err
	}
	return "", &MissingReferenceError{Entity: "user", ID: value}
}

func parseTimestamp(value string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	// zero time lets the autoCreateTime hook assign the import moment
	return time.Time{}
}
