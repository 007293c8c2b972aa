package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/readium/readium/internal/model"
)

type UserRepository interface {
	Create(user *model.User) error
	ByID(id string) (*model.User, error)
	ByUsername(username string) (*model.User, error)
	ByUsernameAndEmail(username, email string) (*model.User, error)
	ByGoogleIdentity(googleID, provider string) (*model.User, error)
	Update(user *model.User) error
	UpdateAvatar(id string, avatar *string) error

	// Session state. RotateRefreshToken is a compare-and-swap: it succeeds only
	// when the stored token still equals old, so two concurrent refresh calls
	// cannot both win against a stale token.
	SetRefreshToken(id, token string) error
	RotateRefreshToken(id, old, next string) error

	// Verification codes. Consume* statements are atomic single-row updates
	// matching code and expiry, so a code can be spent at most once.
	SetVerificationCode(id, code string, expiry time.Time) error
	ConsumeVerificationCode(code string, now time.Time) (*model.User, error)
	ConsumePasswordReset(code, passwordHash string, now time.Time) (*model.User, error)

	// Delete removes the user and every record referencing them, children
	// first, in one transaction.
	Delete(id string) error

	AddHistory(userID, blogID string, viewedAt time.Time) error
	History(userID string) ([]model.HistoryEntry, error)
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, username, first_name, last_name, email, avatar, password_hash,
	provider, google_id, is_verified, refresh_token, verification_code, verification_expiry,
	created_at, updated_at`

func (r *userRepository) Create(user *model.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	query := `INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := r.db.Exec(query,
		user.ID, user.Username, user.FirstName, user.LastName, user.Email, user.Avatar,
		user.PasswordHash, user.Provider, user.GoogleID, user.IsVerified, user.RefreshToken,
		user.VerificationCode, user.VerificationExpiry, user.CreatedAt, user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateUser
	}
	return err
}

func (r *userRepository) ByID(id string) (*model.User, error) {
	user := &model.User{}
	err := r.db.Get(user, `SELECT * FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return user, err
}

func (r *userRepository) ByUsername(username string) (*model.User, error) {
	user := &model.User{}
	err := r.db.Get(user, `SELECT * FROM users WHERE username = $1`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return user, err
}

// ByUsernameAndEmail requires both identifiers to match the same record.
// Login deliberately uses this conjunction instead of a plain username lookup.
func (r *userRepository) ByUsernameAndEmail(username, email string) (*model.User, error) {
	user := &model.User{}
	err := r.db.Get(user, `SELECT * FROM users WHERE username = $1 AND email = $2`, username, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return user, err
}

func (r *userRepository) ByGoogleIdentity(googleID, provider string) (*model.User, error) {
	user := &model.User{}
	err := r.db.Get(user, `SELECT * FROM users WHERE google_id = $1 AND provider = $2`, googleID, provider)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return user, err
}

func (r *userRepository) Update(user *model.User) error {
	query := `UPDATE users SET username = $1, first_name = $2, last_name = $3, email = $4,
		password_hash = $5, is_verified = $6, updated_at = $7 WHERE id = $8`

	_, err := r.db.Exec(query,
		user.Username, user.FirstName, user.LastName, user.Email,
		user.PasswordHash, user.IsVerified, time.Now(), user.ID,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateUser
	}
	return err
}

func (r *userRepository) UpdateAvatar(id string, avatar *string) error {
	_, err := r.db.Exec(`UPDATE users SET avatar = $1, updated_at = $2 WHERE id = $3`,
		avatar, time.Now(), id)
	return err
}

func (r *userRepository) SetRefreshToken(id, token string) error {
	result, err := r.db.Exec(`UPDATE users SET refresh_token = $1, updated_at = $2 WHERE id = $3`,
		token, time.Now(), id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *userRepository) RotateRefreshToken(id, old, next string) error {
	result, err := r.db.Exec(
		`UPDATE users SET refresh_token = $1, updated_at = $2 WHERE id = $3 AND refresh_token = $4`,
		next, time.Now(), id, old)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrTokenMismatch
	}
	return nil
}

func (r *userRepository) SetVerificationCode(id, code string, expiry time.Time) error {
	// A new issuance overwrites any prior unconsumed code.
	_, err := r.db.Exec(
		`UPDATE users SET verification_code = $1, verification_expiry = $2, updated_at = $3 WHERE id = $4`,
		code, expiry, time.Now(), id)
	return err
}

func (r *userRepository) ConsumeVerificationCode(code string, now time.Time) (*model.User, error) {
	user := &model.User{}
	query := `
		UPDATE users
		SET is_verified = TRUE, verification_code = NULL, verification_expiry = NULL, updated_at = $2
		WHERE verification_code = $1 AND verification_expiry > $2
		RETURNING *
	`
	err := r.db.Get(user, query, code, now)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCodeNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) ConsumePasswordReset(code, passwordHash string, now time.Time) (*model.User, error) {
	user := &model.User{}
	query := `
		UPDATE users
		SET password_hash = $2, verification_code = NULL, verification_expiry = NULL, updated_at = $3
		WHERE verification_code = $1 AND verification_expiry > $3
		RETURNING *
	`
	err := r.db.Get(user, query, code, passwordHash, now)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCodeNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Delete removes the user's likes, replies, comments, blogs (with their
// assets, comments and likes), follow edges, bookmarks and history before the
// user row itself. Children go first so a failure never leaves orphans behind
// a missing parent.
func (r *userRepository) Delete(id string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// Replies go first through the subtree helper: the user's own replies and
	// every reply under a comment that is about to disappear, including
	// reply-under-reply descendants authored by other users.
	roots := []string{}
	err = tx.Select(&roots, `
		SELECT id FROM replies
		WHERE user_id = $1
		   OR comment_id IN (
			SELECT id FROM comments
			WHERE user_id = $1 OR blog_id IN (SELECT id FROM blogs WHERE author_id = $1))`,
		id)
	if err != nil {
		return err
	}
	if err := deleteReplySubtrees(tx, roots); err != nil {
		return err
	}

	statements := []string{
		`DELETE FROM likes WHERE user_id = $1`,
		`DELETE FROM likes WHERE blog_id IN (SELECT id FROM blogs WHERE author_id = $1)`,
		`DELETE FROM likes WHERE comment_id IN (SELECT id FROM comments WHERE user_id = $1 OR blog_id IN (SELECT id FROM blogs WHERE author_id = $1))`,
		`DELETE FROM comments WHERE user_id = $1`,
		`DELETE FROM comments WHERE blog_id IN (SELECT id FROM blogs WHERE author_id = $1)`,
		`DELETE FROM images WHERE blog_id IN (SELECT id FROM blogs WHERE author_id = $1)`,
		`DELETE FROM videos WHERE blog_id IN (SELECT id FROM blogs WHERE author_id = $1)`,
		`DELETE FROM blog_tags WHERE blog_id IN (SELECT id FROM blogs WHERE author_id = $1)`,
		`DELETE FROM bookmarks WHERE user_id = $1 OR blog_id IN (SELECT id FROM blogs WHERE author_id = $1)`,
		`DELETE FROM blog_history WHERE user_id = $1 OR blog_id IN (SELECT id FROM blogs WHERE author_id = $1)`,
		`DELETE FROM blogs WHERE author_id = $1`,
		`DELETE FROM followings WHERE follower_id = $1 OR following_id = $1`,
		`DELETE FROM blog_tags WHERE tag_id IN (SELECT id FROM tags WHERE created_by = $1)`,
		`DELETE FROM tags WHERE created_by = $1`,
	}
	for _, stmt := range statements {
		if _, err := tx.Exec(stmt, id); err != nil {
			return err
		}
	}

	result, err := tx.Exec(`DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrUserNotFound
	}

	return tx.Commit()
}

func (r *userRepository) AddHistory(userID, blogID string, viewedAt time.Time) error {
	_, err := r.db.Exec(
		`INSERT INTO blog_history (id, user_id, blog_id, viewed_at) VALUES ($1, $2, $3, $4)`,
		uuid.New().String(), userID, blogID, viewedAt)
	return err
}

func (r *userRepository) History(userID string) ([]model.HistoryEntry, error) {
	entries := []model.HistoryEntry{}
	err := r.db.Select(&entries,
		`SELECT id, user_id, blog_id, viewed_at FROM blog_history WHERE user_id = $1 ORDER BY viewed_at DESC`,
		userID)
	return entries, err
}
