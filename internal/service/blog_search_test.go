package service

import (
	"io"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/readium/readium/internal/db"
	"github.com/readium/readium/internal/model"
	"github.com/readium/readium/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// keyStorage returns object keys verbatim instead of presigning them.
type keyStorage struct{}

func (keyStorage) Save(path string, contentType string, file io.Reader) error { return nil }
func (keyStorage) Delete(path string) error                                   { return nil }
func (keyStorage) URL(path string) string                                     { return path }

func newBlogServiceOverSQLite(t *testing.T) (*BlogService, repository.UserRepository) {
	t.Helper()

	database, err := sqlx.Connect("sqlite", ":memory:")
	require.NoError(t, err)
	database.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, db.RunMigrations(database.DB, "sqlite"))

	users := repository.NewUserRepository(database)
	svc := NewBlogService(
		repository.NewBlogRepository(database),
		repository.NewTagRepository(database),
		repository.NewAssetRepository(database),
		users,
		keyStorage{},
	)
	return svc, users
}

func serviceTestUser(t *testing.T, users repository.UserRepository, username string) *model.User {
	t.Helper()
	user := &model.User{
		Username:   username,
		FirstName:  username,
		Email:      username + "@example.com",
		IsVerified: true,
	}
	require.NoError(t, users.Create(user))
	return user
}

func TestBlogService_SearchByTag(t *testing.T) {
	svc, users := newBlogServiceOverSQLite(t)
	author := serviceTestUser(t, users, "author")

	_, err := svc.Create(author.ID, BlogInput{
		Title: "Sourdough basics", Content: "flour water salt",
		TagNames: []string{"Baking"}, Publish: true,
	}, nil)
	require.NoError(t, err)
	_, err = svc.Create(author.ID, BlogInput{
		Title: "Trail running", Content: "shoes and hills",
		TagNames: []string{"fitness"}, Publish: true,
	}, nil)
	require.NoError(t, err)

	// Tag names are folded on write, so the filter matches case-insensitively.
	blogs, total, err := svc.Search(repository.SearchParams{TagNames: []string{"baking"}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, blogs, 1)
	assert.Equal(t, "Sourdough basics", blogs[0].Title)
	require.Len(t, blogs[0].Tags, 1)
	assert.Equal(t, "baking", blogs[0].Tags[0].Name)
}

func TestBlogService_SearchSkipsDrafts(t *testing.T) {
	svc, users := newBlogServiceOverSQLite(t)
	author := serviceTestUser(t, users, "author")

	_, err := svc.Create(author.ID, BlogInput{
		Title: "Draft thoughts", Content: "not ready yet", Publish: false,
	}, nil)
	require.NoError(t, err)

	blogs, total, err := svc.Search(repository.SearchParams{Query: "thoughts"})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, blogs)
}

func TestBlogService_ToggleBookmark(t *testing.T) {
	svc, users := newBlogServiceOverSQLite(t)
	author := serviceTestUser(t, users, "author")
	reader := serviceTestUser(t, users, "reader")

	blog, err := svc.Create(author.ID, BlogInput{
		Title: "Bookmarkable", Content: "worth keeping", Publish: true,
	}, nil)
	require.NoError(t, err)

	bookmarked, err := svc.ToggleBookmark(blog.ID, reader.ID)
	require.NoError(t, err)
	assert.True(t, bookmarked)

	bookmarked, err = svc.ToggleBookmark(blog.ID, reader.ID)
	require.NoError(t, err)
	assert.False(t, bookmarked)
}
