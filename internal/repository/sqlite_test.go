package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/readium/readium/internal/db"
	"github.com/readium/readium/internal/model"
	"github.com/stretchr/testify/require"
)

// newSQLiteDB gives a migrated in-memory database. A single connection keeps
// every query on the same in-memory instance.
func newSQLiteDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite", ":memory:")
	require.NoError(t, err)
	database.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = database.Close() })

	require.NoError(t, db.RunMigrations(database.DB, "sqlite"))
	return database
}

func seedUser(t *testing.T, users UserRepository, username string) *model.User {
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

func seedBlog(t *testing.T, blogs BlogRepository, authorID, title string) *model.Blog {
	t.Helper()
	blog := &model.Blog{
		Title:       title,
		Content:     "some content about " + title,
		AuthorID:    authorID,
		IsPublished: true,
	}
	require.NoError(t, blogs.Create(blog))
	return blog
}

func countRows(t *testing.T, database *sqlx.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, database.Get(&n, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)))
	return n
}

func TestUserRepository_DeleteCascades(t *testing.T) {
	database := newSQLiteDB(t)
	users := NewUserRepository(database)
	blogs := NewBlogRepository(database)
	tags := NewTagRepository(database)
	comments := NewCommentRepository(database)
	replies := NewReplyRepository(database)
	likes := NewLikeRepository(database)
	followings := NewFollowingRepository(database)

	author := seedUser(t, users, "author")
	reader := seedUser(t, users, "reader")

	blog := seedBlog(t, blogs, author.ID, "Gardening")
	tagIDs, err := tags.EnsureByNames([]string{"plants"}, author.ID)
	require.NoError(t, err)
	require.NoError(t, blogs.SetTags(blog.ID, tagIDs))

	comment := &model.Comment{Content: "nice read", BlogID: blog.ID, UserID: reader.ID}
	require.NoError(t, comments.Create(comment))

	reply := &model.Reply{
		Content: "thanks", UserID: author.ID,
		RepliedUnder: model.RepliedUnderComment, CommentID: &comment.ID,
	}
	require.NoError(t, replies.Create(reply))
	// Grandchild under the reply: no comment_id, only reachable through the
	// reply tree.
	nested := &model.Reply{
		Content: "welcome", UserID: reader.ID,
		RepliedUnder: model.RepliedUnderReply, ReplyID: &reply.ID,
	}
	require.NoError(t, replies.Create(nested))

	_, err = likes.Add(reader.ID, LikeTargetBlog, blog.ID)
	require.NoError(t, err)
	_, err = likes.Add(author.ID, LikeTargetComment, comment.ID)
	require.NoError(t, err)
	_, err = likes.Add(author.ID, LikeTargetReply, nested.ID)
	require.NoError(t, err)

	_, err = followings.Add(reader.ID, author.ID)
	require.NoError(t, err)
	require.NoError(t, blogs.AddBookmark(reader.ID, blog.ID))
	require.NoError(t, users.AddHistory(reader.ID, blog.ID, time.Now()))

	require.NoError(t, users.Delete(author.ID))

	for _, table := range []string{
		"blogs", "tags", "blog_tags", "comments", "replies", "likes",
		"followings", "bookmarks", "blog_history",
	} {
		require.Zero(t, countRows(t, database, table), "table %s not emptied", table)
	}

	_, err = users.ByID(author.ID)
	require.ErrorIs(t, err, ErrUserNotFound)

	// The other user survives the cascade.
	survivor, err := users.ByID(reader.ID)
	require.NoError(t, err)
	require.Equal(t, "reader", survivor.Username)
}

func TestCommentRepository_DeleteRemovesNestedReplies(t *testing.T) {
	database := newSQLiteDB(t)
	users := NewUserRepository(database)
	blogs := NewBlogRepository(database)
	comments := NewCommentRepository(database)
	replies := NewReplyRepository(database)
	likes := NewLikeRepository(database)

	author := seedUser(t, users, "author")
	blog := seedBlog(t, blogs, author.ID, "Cooking")

	comment := &model.Comment{Content: "first", BlogID: blog.ID, UserID: author.ID}
	require.NoError(t, comments.Create(comment))

	reply := &model.Reply{
		Content: "child", UserID: author.ID,
		RepliedUnder: model.RepliedUnderComment, CommentID: &comment.ID,
	}
	require.NoError(t, replies.Create(reply))
	nested := &model.Reply{
		Content: "grandchild", UserID: author.ID,
		RepliedUnder: model.RepliedUnderReply, ReplyID: &reply.ID,
	}
	require.NoError(t, replies.Create(nested))

	_, err := likes.Add(author.ID, LikeTargetReply, nested.ID)
	require.NoError(t, err)

	require.NoError(t, comments.Delete(comment.ID))

	require.Zero(t, countRows(t, database, "replies"))
	require.Zero(t, countRows(t, database, "likes"))
	_, err = comments.ByID(comment.ID)
	require.ErrorIs(t, err, ErrCommentNotFound)
}
