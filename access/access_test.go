package access

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"

	"agiletrack/apperr"
	"agiletrack/db"
	"agiletrack/models"
	"agiletrack/notify"
	"agiletrack/store"
)

// fakeMailer records invitations and can be told to fail.
type fakeMailer struct {
	sent []notify.Invitation
	fail error
}

func (m *fakeMailer) Send(_ context.Context, inv notify.Invitation) error {
	if m.fail != nil {
		return m.fail
	}
	m.sent = append(m.sent, inv)
	return nil
}

var testDBCounter atomic.Int64

func newTestService(t *testing.T, mailer notify.Mailer) (*Service, *store.Store) {
	t.Helper()

	dsn := fmt.Sprintf("file:accesstest%d?mode=memory&cache=shared", testDBCounter.Add(1))
	conn, err := db.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := db.Migrate(conn, "sqlite"); err != nil {
		t.Fatalf("migrating test db: %v", err)
	}

	log := logrus.New()
	log.Out = io.Discard
	st := store.New(conn, log)
	return New(st, mailer, log), st
}

func firstOwnedBoard(t *testing.T, st *store.Store, userID int) models.Board {
	t.Helper()
	owned, _, err := st.BoardsForUser(context.Background(), userID)
	if err != nil || len(owned) == 0 {
		t.Fatalf("expected an owned board, got %v / %v", owned, err)
	}
	return owned[0]
}

func TestAuthorizeBoard(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t, &fakeMailer{})

	owner, _ := st.CreateUser(ctx, "Alice", "alice@example.com", "pw")
	collaborator, _ := st.CreateUser(ctx, "Bob", "bob@example.com", "pw")
	stranger, _ := st.CreateUser(ctx, "Eve", "eve@example.com", "pw")
	board := firstOwnedBoard(t, st, owner.ID)

	if err := st.ShareBoard(ctx, board.ID, collaborator.ID); err != nil {
		t.Fatalf("share failed: %v", err)
	}

	t.Run("Owner", func(t *testing.T) {
		role, err := svc.AuthorizeBoard(ctx, owner.ID, board.ID)
		if err != nil || role != RoleOwner {
			t.Errorf("Expected RoleOwner, got %v err=%v", role, err)
		}
	})

	t.Run("Shared", func(t *testing.T) {
		role, err := svc.AuthorizeBoard(ctx, collaborator.ID, board.ID)
		if err != nil || role != RoleShared {
			t.Errorf("Expected RoleShared, got %v err=%v", role, err)
		}
	})

	t.Run("Denied", func(t *testing.T) {
		role, err := svc.AuthorizeBoard(ctx, stranger.ID, board.ID)
		if err != nil || role != RoleDenied {
			t.Errorf("Expected RoleDenied, got %v err=%v", role, err)
		}
	})

	t.Run("Missing board", func(t *testing.T) {
		_, err := svc.AuthorizeBoard(ctx, owner.ID, 9999)
		if !errors.Is(err, apperr.ErrBoardNotFound) {
			t.Errorf("Expected ErrBoardNotFound, got %v", err)
		}
	})
}

func TestShare(t *testing.T) {
	ctx := context.Background()

	t.Run("Successful share sends invitation", func(t *testing.T) {
		mailer := &fakeMailer{}
		svc, st := newTestService(t, mailer)
		owner, _ := st.CreateUser(ctx, "Alice", "alice@example.com", "pw")
		_, _ = st.CreateUser(ctx, "Carol", "carol@example.com", "pw")
		board := firstOwnedBoard(t, st, owner.ID)

		result, err := svc.Share(ctx, owner, board.ID, "carol@example.com")
		if err != nil {
			t.Fatalf("Share failed: %v", err)
		}
		if !result.EmailSent || result.EmailError != nil {
			t.Errorf("Expected email to be sent, got %+v", result)
		}
		if len(mailer.sent) != 1 {
			t.Fatalf("Expected 1 invitation, got %d", len(mailer.sent))
		}
		inv := mailer.sent[0]
		if inv.To != "carol@example.com" || inv.FromName != "Alice" || inv.BoardTitle != "My Board" {
			t.Errorf("Unexpected invitation: %+v", inv)
		}
	})

	t.Run("Second share is AlreadyShared", func(t *testing.T) {
		svc, st := newTestService(t, &fakeMailer{})
		owner, _ := st.CreateUser(ctx, "Alice", "alice@example.com", "pw")
		st.CreateUser(ctx, "Carol", "carol@example.com", "pw")
		board := firstOwnedBoard(t, st, owner.ID)

		if _, err := svc.Share(ctx, owner, board.ID, "carol@example.com"); err != nil {
			t.Fatalf("first share failed: %v", err)
		}
		_, err := svc.Share(ctx, owner, board.ID, "carol@example.com")
		if !errors.Is(err, apperr.ErrAlreadyShared) {
			t.Errorf("Expected ErrAlreadyShared, got %v", err)
		}
	})

	t.Run("Mail failure does not unwind the grant", func(t *testing.T) {
		mailer := &fakeMailer{fail: errors.New("smtp: connection refused")}
		svc, st := newTestService(t, mailer)
		owner, _ := st.CreateUser(ctx, "Alice", "alice@example.com", "pw")
		invitee, _ := st.CreateUser(ctx, "Carol", "carol@example.com", "pw")
		board := firstOwnedBoard(t, st, owner.ID)

		result, err := svc.Share(ctx, owner, board.ID, "carol@example.com")
		if err != nil {
			t.Fatalf("Share should succeed at the data layer, got %v", err)
		}
		if result.EmailSent {
			t.Error("EmailSent should be false")
		}
		if !errors.Is(result.EmailError, apperr.ErrNotificationFailed) {
			t.Errorf("Expected ErrNotificationFailed, got %v", result.EmailError)
		}

		// the sharing row survived the mail failure
		_, shared, _ := st.BoardsForUser(ctx, invitee.ID)
		if len(shared) != 1 || shared[0].ID != board.ID {
			t.Errorf("Sharing row missing after mail failure: %+v", shared)
		}
	})

	t.Run("Unknown invitee", func(t *testing.T) {
		svc, st := newTestService(t, &fakeMailer{})
		owner, _ := st.CreateUser(ctx, "Alice", "alice@example.com", "pw")
		board := firstOwnedBoard(t, st, owner.ID)

		_, err := svc.Share(ctx, owner, board.ID, "nobody@example.com")
		if !errors.Is(err, apperr.ErrUserNotFound) {
			t.Errorf("Expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("Unknown board", func(t *testing.T) {
		svc, st := newTestService(t, &fakeMailer{})
		owner, _ := st.CreateUser(ctx, "Alice", "alice@example.com", "pw")

		_, err := svc.Share(ctx, owner, 9999, "alice@example.com")
		if !errors.Is(err, apperr.ErrBoardNotFound) {
			t.Errorf("Expected ErrBoardNotFound, got %v", err)
		}
	})

	t.Run("Actor without access", func(t *testing.T) {
		mailer := &fakeMailer{}
		svc, st := newTestService(t, mailer)
		owner, _ := st.CreateUser(ctx, "Alice", "alice@example.com", "pw")
		stranger, _ := st.CreateUser(ctx, "Eve", "eve@example.com", "pw")
		st.CreateUser(ctx, "Carol", "carol@example.com", "pw")
		board := firstOwnedBoard(t, st, owner.ID)

		_, err := svc.Share(ctx, stranger, board.ID, "carol@example.com")
		if !errors.Is(err, apperr.ErrForbidden) {
			t.Errorf("Expected ErrForbidden, got %v", err)
		}
		if len(mailer.sent) != 0 {
			t.Error("No invitation should be sent for a forbidden share")
		}
	})

	t.Run("Shared collaborator may share onward", func(t *testing.T) {
		svc, st := newTestService(t, &fakeMailer{})
		owner, _ := st.CreateUser(ctx, "Alice", "alice@example.com", "pw")
		collaborator, _ := st.CreateUser(ctx, "Bob", "bob@example.com", "pw")
		st.CreateUser(ctx, "Carol", "carol@example.com", "pw")
		board := firstOwnedBoard(t, st, owner.ID)

		if _, err := svc.Share(ctx, owner, board.ID, "bob@example.com"); err != nil {
			t.Fatalf("share to collaborator failed: %v", err)
		}
		if _, err := svc.Share(ctx, collaborator, board.ID, "carol@example.com"); err != nil {
			t.Errorf("collaborator share failed: %v", err)
		}
	})
}

func TestUpdateBoardAuthorization(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t, &fakeMailer{})

	owner, _ := st.CreateUser(ctx, "Alice", "alice@example.com", "pw")
	collaborator, _ := st.CreateUser(ctx, "Bob", "bob@example.com", "pw")
	stranger, _ := st.CreateUser(ctx, "Eve", "eve@example.com", "pw")
	board := firstOwnedBoard(t, st, owner.ID)
	st.ShareBoard(ctx, board.ID, collaborator.ID)

	columns := []models.Column{{ID: "only", Title: "Only"}}
	tasks := []models.Task{}

	t.Run("Owner may update", func(t *testing.T) {
		if err := svc.UpdateBoard(ctx, owner.ID, board.ID, columns, tasks, nil); err != nil {
			t.Errorf("owner update failed: %v", err)
		}
	})

	t.Run("Shared collaborator may update", func(t *testing.T) {
		if err := svc.UpdateBoard(ctx, collaborator.ID, board.ID, columns, tasks, nil); err != nil {
			t.Errorf("collaborator update failed: %v", err)
		}
	})

	t.Run("Stranger is forbidden", func(t *testing.T) {
		err := svc.UpdateBoard(ctx, stranger.ID, board.ID, columns, tasks, nil)
		if !errors.Is(err, apperr.ErrForbidden) {
			t.Errorf("Expected ErrForbidden, got %v", err)
		}
	})

	t.Run("Missing board", func(t *testing.T) {
		err := svc.UpdateBoard(ctx, owner.ID, 9999, columns, tasks, nil)
		if !errors.Is(err, apperr.ErrBoardNotFound) {
			t.Errorf("Expected ErrBoardNotFound, got %v", err)
		}
	})
}
