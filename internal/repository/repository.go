package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = apperrors.ErrNotFound
	// ErrStaleTicket is returned by ticket updates that lost an optimistic
	// version race.
	ErrStaleTicket = errors.New("ticket was modified concurrently")
	// ErrDuplicateTicketNumber is returned when the unique ticket number
	// constraint rejects an insert.
	ErrDuplicateTicketNumber = errors.New("ticket number already taken")
)

const (
	uniqueViolation        = "23505"
	ticketNumberConstraint = "tickets_ticket_number_key"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store groups the repositories that share one transaction boundary.
type Store interface {
	Tickets() TicketRepository
	Comments() TicketCommentRepository
	Attachments() AttachmentRepository
	History() TicketHistoryRepository
	Departments() DepartmentRepository
	Categories() CategoryRepository
	Priorities() PriorityRepository
	SLAs() SLARepository
	Profiles() ProfileRepository
	// WithinTx runs fn against a store bound to one transaction. Returning an
	// error from fn rolls every write back.
	WithinTx(ctx context.Context, fn func(Store) error) error
}

type pgStore struct {
	db DBTX
}

// NewPostgresStore builds a Store over a pgx pool.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	return &pgStore{db: pool}
}

func (s *pgStore) Tickets() TicketRepository         { return &ticketRepository{db: s.db} }
func (s *pgStore) Comments() TicketCommentRepository { return &ticketCommentRepository{db: s.db} }
func (s *pgStore) Attachments() AttachmentRepository { return &attachmentRepository{db: s.db} }
func (s *pgStore) History() TicketHistoryRepository  { return &ticketHistoryRepository{db: s.db} }
func (s *pgStore) Departments() DepartmentRepository { return &departmentRepository{db: s.db} }
func (s *pgStore) Categories() CategoryRepository    { return &categoryRepository{db: s.db} }
func (s *pgStore) Priorities() PriorityRepository    { return &priorityRepository{db: s.db} }
func (s *pgStore) SLAs() SLARepository               { return &slaRepository{db: s.db} }
func (s *pgStore) Profiles() ProfileRepository       { return &profileRepository{db: s.db} }

// WithinTx opens a transaction, or a savepoint when already inside one.
func (s *pgStore) WithinTx(ctx context.Context, fn func(Store) error) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		return fn(&pgStore{db: tx})
	})
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == uniqueViolation && (constraint == "" || pgErr.ConstraintName == constraint)
}
