// Package access decides what a user may do with a board and orchestrates the
// operations that depend on those decisions.
package access

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"agiletrack/apperr"
	"agiletrack/models"
	"agiletrack/notify"
	"agiletrack/store"
)

type Role int

const (
	RoleDenied Role = iota
	RoleShared
	RoleOwner
)

func (r Role) String() string {
	switch r {
	case RoleOwner:
		return "owner"
	case RoleShared:
		return "shared"
	default:
		return "denied"
	}
}

type Service struct {
	store  *store.Store
	mailer notify.Mailer
	log    *logrus.Logger
}

func New(st *store.Store, mailer notify.Mailer, log *logrus.Logger) *Service {
	return &Service{store: st, mailer: mailer, log: log}
}

// AuthorizeBoard resolves the user's role for an existing board. RoleDenied is
// a valid answer, not an error; a missing board is ErrBoardNotFound.
func (s *Service) AuthorizeBoard(ctx context.Context, userID, boardID int) (Role, error) {
	if _, err := s.store.BoardByID(ctx, boardID); err != nil {
		return RoleDenied, err
	}
	owner, shared, err := s.store.Membership(ctx, userID, boardID)
	if err != nil {
		return RoleDenied, err
	}
	switch {
	case owner:
		return RoleOwner, nil
	case shared:
		return RoleShared, nil
	default:
		return RoleDenied, nil
	}
}

// ListBoards returns the caller's owned and shared boards. A board never
// appears in both lists.
func (s *Service) ListBoards(ctx context.Context, userID int) (owned, shared []models.Board, err error) {
	return s.store.BoardsForUser(ctx, userID)
}

// AddBoard creates a default board owned by the caller.
func (s *Service) AddBoard(ctx context.Context, userID int) (models.Board, error) {
	return s.store.CreateBoard(ctx, userID)
}

// UpdateBoard replaces a board's content for any user holding access. Owner and
// shared collaborators are equally privileged here.
func (s *Service) UpdateBoard(ctx context.Context, userID, boardID int, columns []models.Column, tasks []models.Task, title *string) error {
	role, err := s.AuthorizeBoard(ctx, userID, boardID)
	if err != nil {
		return err
	}
	if role == RoleDenied {
		return apperr.ErrForbidden
	}
	return s.store.UpdateBoard(ctx, boardID, columns, tasks, title)
}

// ShareResult reports the outcome of a share. The sharing row is committed
// before the invitation is sent, so a mail failure is carried here instead of
// failing the operation.
type ShareResult struct {
	EmailSent  bool
	EmailError error
}

// Share grants the invitee access to the board and sends them an invitation.
// The actor must hold access themselves; the (invitee, board) pair must not
// already exist in either relation.
func (s *Service) Share(ctx context.Context, actor models.User, boardID int, inviteeEmail string) (ShareResult, error) {
	board, err := s.store.BoardByID(ctx, boardID)
	if err != nil {
		return ShareResult{}, err
	}

	owner, shared, err := s.store.Membership(ctx, actor.ID, boardID)
	if err != nil {
		return ShareResult{}, err
	}
	if !owner && !shared {
		return ShareResult{}, apperr.ErrForbidden
	}

	invitee, err := s.store.UserByEmail(ctx, inviteeEmail)
	if err != nil {
		return ShareResult{}, err
	}

	if err := s.store.ShareBoard(ctx, boardID, invitee.ID); err != nil {
		return ShareResult{}, err
	}

	result := ShareResult{EmailSent: true}
	inv := notify.Invitation{To: invitee.Email, FromName: actor.Name, BoardTitle: board.Title}
	if err := s.mailer.Send(ctx, inv); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"board_id": boardID, "to": invitee.Email}).
			Warn("share committed but invitation email failed")
		result.EmailSent = false
		result.EmailError = fmt.Errorf("%w: %v", apperr.ErrNotificationFailed, err)
	}
	return result, nil
}
