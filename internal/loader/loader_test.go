package loader

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"golang.org/x/text/encoding/charmap"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644)
	assert.NoError(t, err)
}

// recordingSpec builds a spec whose Load appends each row to rows.
func recordingSpec(name, file string, deps []string, rows *[]Row) EntitySpec {
	return EntitySpec{
		Name:      name,
		FileName:  file,
		DependsOn: deps,
		Load: func(ctx context.Context, tx *gorm.DB, refs *RefMap, row Row) (bool, error) {
			*rows = append(*rows, row)
			return true, nil
		},
	}
}

func TestSortSpecs_DependenciesComeFirst(t *testing.T) {
	specs := []EntitySpec{
		{Name: "comment", DependsOn: []string{"review", "user"}},
		{Name: "review", DependsOn: []string{"title", "user"}},
		{Name: "title", DependsOn: []string{"category"}},
		{Name: "category"},
		{Name: "user"},
	}

	ordered, err := sortSpecs(specs)
	assert.NoError(t, err)

	position := make(map[string]int, len(ordered))
	for i, s := range ordered {
		position[s.Name] = i
	}
	for _, s := range specs {
		for _, dep := range s.DependsOn {
			assert.Less(t, position[dep], position[s.Name], "%s must come after %s", s.Name, dep)
		}
	}
}

func TestSortSpecs_RegistrationOrderBreaksTies(t *testing.T) {
	specs := []EntitySpec{
		{Name: "b"},
		{Name: "a"},
		{Name: "c"},
	}

	ordered, err := sortSpecs(specs)
	assert.NoError(t, err)
	assert.Equal(t, "b", ordered[0].Name)
	assert.Equal(t, "a", ordered[1].Name)
	assert.Equal(t, "c", ordered[2].Name)
}

func TestSortSpecs_CycleIsRejected(t *testing.T) {
	specs := []EntitySpec{
		{Name: "a", DependsOn: []string{"b"}},
		{Name: "b", DependsOn: []string{"a"}},
	}

	_, err := sortSpecs(specs)

	cycleErr := &CycleError{}
	assert.ErrorAs(t, err, &cycleErr)
	assert.ElementsMatch(t, []string{"a", "b"}, cycleErr.Entities)
}

func TestSortSpecs_UnregisteredDependency(t *testing.T) {
	specs := []EntitySpec{
		{Name: "a", DependsOn: []string{"ghost"}},
	}

	_, err := sortSpecs(specs)
	assert.Error(t, err)
}

func TestProcessFile_MissingFileIsSkipped(t *testing.T) {
	dir := t.TempDir()
	var rows []Row
	spec := recordingSpec("category", "category.csv", nil, &rows)
	l := New(nil, discardLogger(), nil)

	report := l.processFile(context.Background(), nil, filepath.Join(dir, spec.File()), spec, NewRefMap())

	assert.True(t, report.Skipped)
	assert.Empty(t, rows)
}

func TestProcessFile_RowsReachLoadFunc(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "category.csv", "id,name,slug\n1,Books,books\n2,Movies,movies\n")

	var rows []Row
	spec := recordingSpec("category", "category.csv", nil, &rows)
	l := New(nil, discardLogger(), nil)

	report := l.processFile(context.Background(), nil, filepath.Join(dir, "category.csv"), spec, NewRefMap())

	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, Row{"id": "1", "name": "Books", "slug": "books"}, rows[0])
	assert.Equal(t, Row{"id": "2", "name": "Movies", "slug": "movies"}, rows[1])
}

// One bad row is reported and counted; the rest of the file still loads.
func TestProcessFile_BadRowDoesNotAbortFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "review.csv", "id,score\n1,7\n2,bad\n3,9\n")

	var loaded []string
	spec := EntitySpec{
		Name: "review",
		Load: func(ctx context.Context, tx *gorm.DB, refs *RefMap, row Row) (bool, error) {
			if row["score"] == "bad" {
				return false, errors.New("invalid score")
			}
			loaded = append(loaded, row["id"])
			return true, nil
		},
	}
	l := New(nil, discardLogger(), nil)

	report := l.processFile(context.Background(), nil, filepath.Join(dir, "review.csv"), spec, NewRefMap())

	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, []string{"1", "3"}, loaded)
}

// Rows already present report created=false and are not counted again.
func TestProcessFile_ExistingRowsNotRecounted(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "genre.csv", "id,slug\n1,sci-fi\n2,drama\n")

	seen := map[string]bool{"sci-fi": true}
	spec := EntitySpec{
		Name: "genre",
		Load: func(ctx context.Context, tx *gorm.DB, refs *RefMap, row Row) (bool, error) {
			if seen[row["slug"]] {
				return false, nil
			}
			seen[row["slug"]] = true
			return true, nil
		},
	}
	l := New(nil, discardLogger(), nil)

	report := l.processFile(context.Background(), nil, filepath.Join(dir, "genre.csv"), spec, NewRefMap())

	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 0, report.Failed)
}

func TestProcessFile_CustomDelimiter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "category.csv", "id;name;slug\n1;Books;books\n")

	var rows []Row
	spec := recordingSpec("category", "category.csv", nil, &rows)
	l := New(nil, discardLogger(), nil, WithDelimiter(';'))

	report := l.processFile(context.Background(), nil, filepath.Join(dir, "category.csv"), spec, NewRefMap())

	assert.Equal(t, 1, report.Created)
	assert.Equal(t, "Books", rows[0]["name"])
}

func TestProcessFile_Windows1251Encoding(t *testing.T) {
	dir := t.TempDir()

	encoded, err := charmap.Windows1251.NewEncoder().String("id,name,slug\n1,Книги,books\n")
	assert.NoError(t, err)
	writeFile(t, dir, "category.csv", encoded)

	var rows []Row
	spec := recordingSpec("category", "category.csv", nil, &rows)
	l := New(nil, discardLogger(), nil, WithEncoding("windows-1251"))

	report := l.processFile(context.Background(), nil, filepath.Join(dir, "category.csv"), spec, NewRefMap())

	assert.Equal(t, 1, report.Created)
	assert.Equal(t, "Книги", rows[0]["name"])
}

func TestRun_MissingDirectory(t *testing.T) {
	l := New(nil, discardLogger(), nil)

	_, err := l.Run(context.Background(), filepath.Join(t.TempDir(), "nope"))

	assert.Error(t, err)
}

func TestEntitySpecFile_FallsBackToName(t *testing.T) {
	assert.Equal(t, "category.csv", EntitySpec{Name: "category"}.File())
	assert.Equal(t, "users.csv", EntitySpec{Name: "user", FileName: "users.csv"}.File())
}

func TestDomainSpecs_FormValidOrder(t *testing.T) {
	ordered, err := sortSpecs(Specs())
	assert.NoError(t, err)
	assert.Len(t, ordered, 7)
	assert.Equal(t, "user", ordered[0].Name)
}

func TestRefMap_ResolvesAcrossEntities(t *testing.T) {
	refs := NewRefMap()
	refs.Put("user", "12", "uuid-12")
	refs.Put("title", "12", int64(99))

	pk, ok := refs.Get("user", "12")
	assert.True(t, ok)
	assert.Equal(t, "uuid-12", pk)

	pk, ok = refs.Get("title", "12")
	assert.True(t, ok)
	assert.Equal(t, int64(99), pk)

	_, ok = refs.Get("genre", "12")
	assert.False(t, ok)
}

func TestParseIntRef_InvalidValue(t *testing.T) {
	_, err := ParseIntRef("title", "abc")

	invalidErr := &InvalidReferenceError{}
	assert.ErrorAs(t, err, &invalidErr)
	assert.Equal(t, "title", invalidErr.Entity)
}
