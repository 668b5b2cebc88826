package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/asehra/shuttle-pool/backend/internal/domain"
)

// RequestRepo defines the persistence operations for trip Requests.
// The service layer depends on this interface, not the concrete Postgres
// implementation, which allows services to be unit-tested with mocks.
//
// All "Active" queries filter on expired = false and order ascending by
// scheduled_at, matching how the matching engine consumes them.
type RequestRepo interface {
	// Create inserts a new request and returns the persisted record (with
	// DB-generated id, created_at, and updated_at populated).
	Create(ctx context.Context, req domain.Request) (domain.Request, error)

	// Update overwrites the mutable fields of an existing request in place
	// and returns the updated record. Returns domain.ErrNotFound if no
	// request with that ID exists.
	Update(ctx context.Context, req domain.Request) (domain.Request, error)

	// ListActiveByOwner returns the owner's non-expired requests scheduled
	// in [from, to).
	ListActiveByOwner(ctx context.Context, owner string, from, to time.Time) ([]domain.Request, error)

	// ListActiveDueWithin returns all non-expired requests scheduled in the
	// open-closed window (after, until].
	ListActiveDueWithin(ctx context.Context, after, until time.Time) ([]domain.Request, error)

	// ListActiveAt returns every non-expired request scheduled at exactly at.
	ListActiveAt(ctx context.Context, at time.Time) ([]domain.Request, error)

	// ExpireBefore marks every non-expired request scheduled before cutoff
	// as expired, in a single batch update, and returns the number of rows
	// affected. Re-running against already-expired rows is a no-op.
	ExpireBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// pgRequestRepo is the Postgres implementation of RequestRepo.
type pgRequestRepo struct {
	db db
}

// NewRequestRepo constructs a RequestRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewRequestRepo(db db) RequestRepo {
	return &pgRequestRepo{db: db}
}

const requestColumns = `id, owner, type, slot_label, scheduled_at, route_map_url, expired, created_at, updated_at`

// Create inserts a new request row and returns the full persisted record.
func (r *pgRequestRepo) Create(ctx context.Context, req domain.Request) (domain.Request, error) {
	const q = `
		INSERT INTO requests (owner, type, slot_label, scheduled_at, route_map_url, expired)
		VALUES (@owner, @type, @slot_label, @scheduled_at, @route_map_url, false)
		RETURNING ` + requestColumns

	args := pgx.NamedArgs{
		"owner":         req.Owner,
		"type":          string(req.Type),
		"slot_label":    req.SlotLabel,
		"scheduled_at":  req.ScheduledAt,
		"route_map_url": req.RouteMapURL,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanRequest(row)
	if err != nil {
		return domain.Request{}, fmt.Errorf("repo.RequestRepo.Create: %w", err)
	}
	return result, nil
}

// Update overwrites the slot, instant, and map URL of an existing request.
// Owner and type never change on overwrite — a re-selection replaces the
// schedule, not the identity of the booking.
func (r *pgRequestRepo) Update(ctx context.Context, req domain.Request) (domain.Request, error) {
	const q = `
		UPDATE requests
		SET slot_label    = @slot_label,
		    scheduled_at  = @scheduled_at,
		    route_map_url = @route_map_url,
		    expired       = @expired,
		    updated_at    = now()
		WHERE id = @id
		RETURNING ` + requestColumns

	args := pgx.NamedArgs{
		"id":            req.ID,
		"slot_label":    req.SlotLabel,
		"scheduled_at":  req.ScheduledAt,
		"route_map_url": req.RouteMapURL,
		"expired":       req.Expired,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanRequest(row)
	if err != nil {
		return domain.Request{}, fmt.Errorf("repo.RequestRepo.Update: %w", err)
	}
	return result, nil
}

// ListActiveByOwner returns the owner's non-expired requests in [from, to),
// earliest first.
func (r *pgRequestRepo) ListActiveByOwner(ctx context.Context, owner string, from, to time.Time) ([]domain.Request, error) {
	const q = `
		SELECT ` + requestColumns + `
		FROM requests
		WHERE owner = @owner
		  AND expired = false
		  AND scheduled_at >= @from
		  AND scheduled_at < @to
		ORDER BY scheduled_at ASC`

	return r.list(ctx, q, pgx.NamedArgs{"owner": owner, "from": from, "to": to}, "ListActiveByOwner")
}

// ListActiveDueWithin returns non-expired requests in (after, until], earliest first.
func (r *pgRequestRepo) ListActiveDueWithin(ctx context.Context, after, until time.Time) ([]domain.Request, error) {
	const q = `
		SELECT ` + requestColumns + `
		FROM requests
		WHERE expired = false
		  AND scheduled_at > @after
		  AND scheduled_at <= @until
		ORDER BY scheduled_at ASC`

	return r.list(ctx, q, pgx.NamedArgs{"after": after, "until": until}, "ListActiveDueWithin")
}

// ListActiveAt returns every non-expired request scheduled at exactly at.
func (r *pgRequestRepo) ListActiveAt(ctx context.Context, at time.Time) ([]domain.Request, error) {
	const q = `
		SELECT ` + requestColumns + `
		FROM requests
		WHERE expired = false
		  AND scheduled_at = @at
		ORDER BY created_at ASC`

	return r.list(ctx, q, pgx.NamedArgs{"at": at}, "ListActiveAt")
}

// ExpireBefore soft-expires every active request scheduled before cutoff.
func (r *pgRequestRepo) ExpireBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const q = `
		UPDATE requests
		SET expired = true, updated_at = now()
		WHERE expired = false
		  AND scheduled_at < @cutoff`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"cutoff": cutoff})
	if err != nil {
		return 0, fmt.Errorf("repo.RequestRepo.ExpireBefore: %w", err)
	}
	return tag.RowsAffected(), nil
}

// list runs a multi-row request query and maps the result set.
func (r *pgRequestRepo) list(ctx context.Context, q string, args pgx.NamedArgs, op string) ([]domain.Request, error) {
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.RequestRepo.%s: %w", op, err)
	}
	defer rows.Close()

	var requests []domain.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.RequestRepo.%s: scan: %w", op, err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.RequestRepo.%s: rows: %w", op, err)
	}

	return requests, nil
}

// scanRequest maps a single database row into a domain.Request.
func scanRequest(s scanner) (domain.Request, error) {
	var (
		req   domain.Request
		id    pgtype.UUID
		rtype string
	)

	err := s.Scan(&id, &req.Owner, &rtype, &req.SlotLabel, &req.ScheduledAt,
		&req.RouteMapURL, &req.Expired, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Request{}, domain.ErrNotFound
		}
		return domain.Request{}, err
	}

	req.ID = uuid.UUID(id.Bytes)
	req.Type = domain.RouteType(rtype)
	return req, nil
}
