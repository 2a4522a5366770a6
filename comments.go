package vintagepress

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// defaultCommentPage is the moderation listing page size.
const defaultCommentPage = 20

// CreateComment stores a new reader comment in pending status. Input is
// assumed to be validated (non-empty, length-bounded) by the caller.
func (s *Store) CreateComment(postID, authorName, body string) (Comment, error) {
	c := Comment{
		ID:         uuid.NewString(),
		PostID:     postID,
		AuthorName: authorName,
		Body:       body,
		Status:     CommentPending,
		CreatedAt:  time.Now().UTC(),
	}
	_, err := s.db.Exec(`
		INSERT INTO comments (id, post_id, author_name, body, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.PostID, c.AuthorName, c.Body, string(c.Status), c.CreatedAt)
	if err != nil {
		return Comment{}, fmt.Errorf("create comment: %w", err)
	}
	return c, nil
}

// SetCommentStatus moves a comment to the given status. Transitions are
// deliberately unguarded: a rejected comment can be re-approved and vice
// versa. Returns ErrNotFound when the comment does not exist.
func (s *Store) SetCommentStatus(commentID string, status CommentStatus) (Comment, error) {
	res, err := s.db.Exec(`UPDATE comments SET status = ? WHERE id = ?`, string(status), commentID)
	if err != nil {
		return Comment{}, fmt.Errorf("set comment status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Comment{}, ErrNotFound
	}
	return s.getComment(commentID)
}

func (s *Store) getComment(commentID string) (Comment, error) {
	var c Comment
	err := s.db.QueryRow(`
		SELECT c.id, c.post_id, c.author_name, c.body, c.status, c.created_at, p.title, p.slug
		FROM comments c
		JOIN posts p ON p.id = c.post_id
		WHERE c.id = ?`, commentID).
		Scan(&c.ID, &c.PostID, &c.AuthorName, &c.Body, &c.Status, &c.CreatedAt, &c.PostTitle, &c.PostSlug)
	if err != nil {
		return Comment{}, err
	}
	return c, nil
}

// DeleteComment hard-deletes a comment in any status. Deleting a missing
// comment is a no-op.
func (s *Store) DeleteComment(commentID string) error {
	_, err := s.db.Exec(`DELETE FROM comments WHERE id = ?`, commentID)
	return err
}

// ListComments returns comments in exactly one moderation status, newest
// first, with cursor pagination. The returned cursor is the last comment's
// id, set only when a full page came back (a short page means no more data).
func (s *Store) ListComments(status CommentStatus, limit int, cursor string) ([]Comment, string, error) {
	if limit <= 0 {
		limit = defaultCommentPage
	}
	query := `
		SELECT c.id, c.post_id, c.author_name, c.body, c.status, c.created_at, p.title, p.slug
		FROM comments c
		JOIN posts p ON p.id = c.post_id
		WHERE c.status = ?`
	args := []any{string(status)}
	if cursor != "" {
		// Tuple comparison keeps pagination stable when comments share a
		// creation timestamp.
		query += ` AND (c.created_at, c.id) < (SELECT created_at, id FROM comments WHERE id = ?)`
		args = append(args, cursor)
	}
	query += ` ORDER BY c.created_at DESC, c.id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()
	var comments []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorName, &c.Body, &c.Status,
			&c.CreatedAt, &c.PostTitle, &c.PostSlug); err != nil {
			return nil, "", err
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}
	next := ""
	if len(comments) == limit {
		next = comments[len(comments)-1].ID
	}
	return comments, next, nil
}

// ApprovedComments returns a post's approved comments, newest first, for the
// public post page.
func (s *Store) ApprovedComments(postID string) ([]Comment, error) {
	rows, err := s.db.Query(`
		SELECT id, post_id, author_name, body, status, created_at
		FROM comments
		WHERE post_id = ? AND status = 'approved'
		ORDER BY created_at DESC`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var comments []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorName, &c.Body, &c.Status, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
