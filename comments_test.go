package vintagepress

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestCreateCommentStartsPending(t *testing.T) {
	s := setupTestStore(t)

	post := mustSave(t, s, testPost("Commented", LanguageEnglish, StatusPublished))
	c, err := s.CreateComment(post.ID, "Reader", "Beautiful verse.")
	if err != nil {
		t.Fatalf("CreateComment failed: %v", err)
	}
	if c.Status != CommentPending {
		t.Errorf("Status = %q, want pending", c.Status)
	}
	if c.ID == "" {
		t.Error("expected a generated comment id")
	}
}

func TestSetCommentStatusTransitions(t *testing.T) {
	s := setupTestStore(t)

	post := mustSave(t, s, testPost("Moderated", LanguageHindi, StatusPublished))
	c, err := s.CreateComment(post.ID, "Reader", "A thought.")
	if err != nil {
		t.Fatal(err)
	}

	approved, err := s.SetCommentStatus(c.ID, CommentApproved)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if approved.Status != CommentApproved {
		t.Errorf("Status = %q, want approved", approved.Status)
	}
	if approved.PostTitle != "Moderated" || approved.PostSlug != "moderated" {
		t.Errorf("post context = %q/%q, want Moderated/moderated", approved.PostTitle, approved.PostSlug)
	}

	// Any transition is allowed, including approved back to rejected.
	rejected, err := s.SetCommentStatus(c.ID, CommentRejected)
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if rejected.Status != CommentRejected {
		t.Errorf("Status = %q, want rejected", rejected.Status)
	}
}

func TestSetCommentStatusMissing(t *testing.T) {
	s := setupTestStore(t)

	if _, err := s.SetCommentStatus("missing", CommentApproved); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteCommentMissingIsNoop(t *testing.T) {
	s := setupTestStore(t)

	if err := s.DeleteComment("missing"); err != nil {
		t.Errorf("DeleteComment(missing) = %v, want nil", err)
	}
}

func TestApprovedCommentsOnlyShowApproved(t *testing.T) {
	s := setupTestStore(t)

	post := mustSave(t, s, testPost("Popular", LanguageMarathi, StatusPublished))
	a, _ := s.CreateComment(post.ID, "Reader A", "First.")
	if _, err := s.CreateComment(post.ID, "Reader B", "Second."); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SetCommentStatus(a.ID, CommentApproved); err != nil {
		t.Fatal(err)
	}

	comments, err := s.ApprovedComments(post.ID)
	if err != nil {
		t.Fatalf("ApprovedComments failed: %v", err)
	}
	if len(comments) != 1 || comments[0].ID != a.ID {
		t.Errorf("comments = %v, want only the approved one", comments)
	}
}

func TestListCommentsCursorPagination(t *testing.T) {
	s := setupTestStore(t)

	post := mustSave(t, s, testPost("Busy Thread", LanguageEnglish, StatusPublished))
	for i := 0; i < 5; i++ {
		c, err := s.CreateComment(post.ID, "Reader", fmt.Sprintf("Comment %d", i))
		if err != nil {
			t.Fatal(err)
		}
		// Spread creation times so ordering is deterministic.
		created := time.Now().UTC().Add(-time.Duration(5-i) * time.Minute)
		if _, err := s.db.Exec(`UPDATE comments SET created_at = ? WHERE id = ?`, created, c.ID); err != nil {
			t.Fatal(err)
		}
	}

	first, cursor, err := s.ListComments(CommentPending, 2, "")
	if err != nil {
		t.Fatalf("ListComments failed: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("len(first) = %d, want 2", len(first))
	}
	if cursor == "" {
		t.Fatal("full page should return a cursor")
	}
	if first[0].Body != "Comment 4" || first[1].Body != "Comment 3" {
		t.Errorf("first page = %q,%q, want newest first", first[0].Body, first[1].Body)
	}

	second, cursor2, err := s.ListComments(CommentPending, 2, cursor)
	if err != nil {
		t.Fatalf("ListComments page 2 failed: %v", err)
	}
	if len(second) != 2 || second[0].Body != "Comment 2" {
		t.Errorf("second page = %v, want Comment 2 then Comment 1", second)
	}

	third, cursor3, err := s.ListComments(CommentPending, 2, cursor2)
	if err != nil {
		t.Fatalf("ListComments page 3 failed: %v", err)
	}
	if len(third) != 1 || third[0].Body != "Comment 0" {
		t.Errorf("third page = %v, want only Comment 0", third)
	}
	if cursor3 != "" {
		t.Errorf("short page cursor = %q, want empty", cursor3)
	}
}

func TestListCommentsFiltersByStatus(t *testing.T) {
	s := setupTestStore(t)

	post := mustSave(t, s, testPost("Mixed", LanguageEnglish, StatusPublished))
	a, _ := s.CreateComment(post.ID, "Reader", "Pending one.")
	b, _ := s.CreateComment(post.ID, "Reader", "Approved one.")
	if _, err := s.SetCommentStatus(b.ID, CommentApproved); err != nil {
		t.Fatal(err)
	}

	pending, _, err := s.ListComments(CommentPending, 0, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].ID != a.ID {
		t.Errorf("pending = %v, want only the pending comment", pending)
	}

	approved, _, err := s.ListComments(CommentApproved, 0, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(approved) != 1 || approved[0].ID != b.ID {
		t.Errorf("approved = %v, want only the approved comment", approved)
	}
}
