package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/cabin-booking/internal/domain"
)

// ReservationRepo defines the persistence operations for Reservations.
// Reservations are never deleted; cancellation is a status change.
type ReservationRepo interface {
	// Create inserts a new reservation and returns the persisted record.
	// An overlap with an active reservation on the same cabin that slipped
	// past the service check is rejected by the database and returned as
	// *domain.ConflictError.
	Create(ctx context.Context, r domain.Reservation) (domain.Reservation, error)

	// GetByID retrieves a reservation by primary key.
	// Returns domain.ErrReservationNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Reservation, error)

	// GetForUpdate is GetByID plus a row lock held until the surrounding
	// transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (domain.Reservation, error)

	// ListActiveByCabin returns the pending and confirmed reservations of a
	// cabin whose stay touches [from, to], ordered by check-in.
	ListActiveByCabin(ctx context.Context, cabinID uuid.UUID, from, to time.Time) ([]domain.Reservation, error)

	// ListPaged returns one page of reservations matching f, most recent
	// check-in first, and the total number of matches.
	ListPaged(ctx context.Context, f domain.ReservationFilter, p domain.PaginationParams) ([]domain.Reservation, int64, error)

	// UpdatePayment stores a validated payment state.
	UpdatePayment(ctx context.Context, id uuid.UUID, p domain.PaymentState) (domain.Reservation, error)

	// UpdateStatus moves a reservation from one status to another. The write
	// only applies while the stored status still equals from; otherwise it
	// returns domain.ErrInvalidTransition.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.Status) (domain.Reservation, error)

	// UpdateStay stores new stay dates together with the re-priced payment state.
	UpdateStay(ctx context.Context, id uuid.UUID, stay domain.DateRange, p domain.PaymentState) (domain.Reservation, error)

	// CompleteEnded marks up to limit confirmed reservations whose check-out
	// is before today as completed, in one statement, and returns their IDs.
	// Rows locked by concurrent writers are skipped and picked up next run.
	CompleteEnded(ctx context.Context, today time.Time, limit int) ([]uuid.UUID, error)
}

// pgReservationRepo is the Postgres implementation of ReservationRepo.
type pgReservationRepo struct {
	db db
}

// NewReservationRepo constructs a ReservationRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewReservationRepo(db db) ReservationRepo {
	return &pgReservationRepo{db: db}
}

const reservationColumns = `
	id, cabin_id, user_id, guest_name, guest_phone, check_in, check_out, guests,
	total_price, amount_paid, payment_status, status, channel, includes_add_on,
	notes, created_by, created_at, updated_at`

func (r *pgReservationRepo) Create(ctx context.Context, res domain.Reservation) (domain.Reservation, error) {
	const q = `
		INSERT INTO reservations (
			cabin_id, user_id, guest_name, guest_phone, check_in, check_out, guests,
			total_price, amount_paid, payment_status, status, channel, includes_add_on,
			notes, created_by)
		VALUES (
			@cabin_id, @user_id, @guest_name, @guest_phone, @check_in, @check_out, @guests,
			@total_price, @amount_paid, @payment_status, @status, @channel, @includes_add_on,
			@notes, @created_by)
		RETURNING ` + reservationColumns

	args := pgx.NamedArgs{
		"cabin_id":        res.CabinID,
		"user_id":         res.UserID, // nil becomes NULL
		"guest_name":      res.GuestName,
		"guest_phone":     res.GuestPhone,
		"check_in":        res.CheckIn,
		"check_out":       res.CheckOut,
		"guests":          res.Guests,
		"total_price":     toNumeric(res.TotalPrice),
		"amount_paid":     toNumeric(res.AmountPaid),
		"payment_status":  string(res.PaymentStatus),
		"status":          string(res.Status),
		"channel":         string(res.Channel),
		"includes_add_on": res.IncludesAddOn,
		"notes":           res.Notes,
		"created_by":      res.CreatedBy,
	}

	result, err := scanReservation(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.Create: %w", classify(err))
	}
	return result, nil
}

func (r *pgReservationRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = @id`

	result, err := scanReservation(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.GetByID: %w", classify(err))
	}
	return result, nil
}

func (r *pgReservationRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = @id FOR UPDATE`

	result, err := scanReservation(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.GetForUpdate: %w", classify(err))
	}
	return result, nil
}

func (r *pgReservationRepo) ListActiveByCabin(ctx context.Context, cabinID uuid.UUID, from, to time.Time) ([]domain.Reservation, error) {
	// Same closed-closed comparison as domain.Overlaps; served by
	// reservations_cabin_dates_idx.
	const q = `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE cabin_id = @cabin_id
		  AND status IN ('pending', 'confirmed')
		  AND check_in <= @to
		  AND check_out >= @from
		ORDER BY check_in, id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"cabin_id": cabinID, "from": from, "to": to})
	if err != nil {
		return nil, fmt.Errorf("repo.ReservationRepo.ListActiveByCabin: %w", classify(err))
	}
	res, err := collectReservations(rows)
	if err != nil {
		return nil, fmt.Errorf("repo.ReservationRepo.ListActiveByCabin: %w", err)
	}
	return res, nil
}

func (r *pgReservationRepo) ListPaged(ctx context.Context, f domain.ReservationFilter, p domain.PaginationParams) ([]domain.Reservation, int64, error) {
	where, args := reservationFilterClause(f)

	var total int64
	countQ := `SELECT COUNT(*) FROM reservations` + where
	if err := r.db.QueryRow(ctx, countQ, args).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.ReservationRepo.ListPaged: count: %w", classify(err))
	}

	args["limit"] = p.Limit
	args["offset"] = p.Offset()
	q := `SELECT ` + reservationColumns + ` FROM reservations` + where + `
		ORDER BY check_in DESC, created_at DESC
		LIMIT @limit OFFSET @offset`

	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.ReservationRepo.ListPaged: %w", classify(err))
	}
	res, err := collectReservations(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.ReservationRepo.ListPaged: %w", err)
	}
	return res, total, nil
}

// reservationFilterClause builds the WHERE clause for ListPaged.
// Only set filters contribute a condition.
func reservationFilterClause(f domain.ReservationFilter) (string, pgx.NamedArgs) {
	var conds []string
	args := pgx.NamedArgs{}

	if f.CabinID != nil {
		conds = append(conds, "cabin_id = @cabin_id")
		args["cabin_id"] = *f.CabinID
	}
	if f.UserID != nil {
		conds = append(conds, "user_id = @user_id")
		args["user_id"] = *f.UserID
	}
	if f.Status != nil {
		conds = append(conds, "status = @status")
		args["status"] = string(*f.Status)
	}
	if f.From != nil {
		conds = append(conds, "check_out >= @from")
		args["from"] = *f.From
	}
	if f.To != nil {
		conds = append(conds, "check_in <= @to")
		args["to"] = *f.To
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *pgReservationRepo) UpdatePayment(ctx context.Context, id uuid.UUID, p domain.PaymentState) (domain.Reservation, error) {
	const q = `
		UPDATE reservations
		SET amount_paid    = @amount_paid,
		    total_price    = @total_price,
		    payment_status = @payment_status,
		    updated_at     = now()
		WHERE id = @id
		RETURNING ` + reservationColumns

	args := pgx.NamedArgs{
		"id":             id,
		"amount_paid":    toNumeric(p.AmountPaid),
		"total_price":    toNumeric(p.TotalPrice),
		"payment_status": string(p.Status),
	}

	result, err := scanReservation(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.UpdatePayment: %w", classify(err))
	}
	return result, nil
}

func (r *pgReservationRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.Status) (domain.Reservation, error) {
	const q = `
		UPDATE reservations
		SET status     = @to,
		    updated_at = now()
		WHERE id = @id AND status = @from
		RETURNING ` + reservationColumns

	args := pgx.NamedArgs{"id": id, "from": string(from), "to": string(to)}

	result, err := scanReservation(r.db.QueryRow(ctx, q, args))
	if errors.Is(err, domain.ErrReservationNotFound) {
		// Either the row is gone or its status moved under us; tell them apart.
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.UpdateStatus: %w", getErr)
		}
		return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.UpdateStatus: %w: status is no longer %s", domain.ErrInvalidTransition, from)
	}
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.UpdateStatus: %w", classify(err))
	}
	return result, nil
}

func (r *pgReservationRepo) UpdateStay(ctx context.Context, id uuid.UUID, stay domain.DateRange, p domain.PaymentState) (domain.Reservation, error) {
	const q = `
		UPDATE reservations
		SET check_in       = @check_in,
		    check_out      = @check_out,
		    amount_paid    = @amount_paid,
		    total_price    = @total_price,
		    payment_status = @payment_status,
		    updated_at     = now()
		WHERE id = @id
		RETURNING ` + reservationColumns

	args := pgx.NamedArgs{
		"id":             id,
		"check_in":       stay.CheckIn,
		"check_out":      stay.CheckOut,
		"amount_paid":    toNumeric(p.AmountPaid),
		"total_price":    toNumeric(p.TotalPrice),
		"payment_status": string(p.Status),
	}

	result, err := scanReservation(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.UpdateStay: %w", classify(err))
	}
	return result, nil
}

func (r *pgReservationRepo) CompleteEnded(ctx context.Context, today time.Time, limit int) ([]uuid.UUID, error) {
	const q = `
		UPDATE reservations
		SET status     = 'completed',
		    updated_at = now()
		WHERE status = 'confirmed'
		  AND id IN (
			SELECT id
			FROM reservations
			WHERE status = 'confirmed' AND check_out < @today
			ORDER BY check_out, id
			LIMIT @limit
			FOR UPDATE SKIP LOCKED)
		RETURNING id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"today": today, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("repo.ReservationRepo.CompleteEnded: %w", classify(err))
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id pgtype.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("repo.ReservationRepo.CompleteEnded: scan: %w", err)
		}
		ids = append(ids, uuid.UUID(id.Bytes))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ReservationRepo.CompleteEnded: rows: %w", classify(err))
	}
	return ids, nil
}

// collectReservations drains rows into a non-nil slice and closes them.
func collectReservations(rows pgx.Rows) ([]domain.Reservation, error) {
	defer rows.Close()

	out := []domain.Reservation{}
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", classify(err))
	}
	return out, nil
}

// scanReservation maps a single database row into a domain.Reservation.
// It handles the UUID, nullable UUID, DATE and NUMERIC conversions.
func scanReservation(s scanner) (domain.Reservation, error) {
	var (
		res           domain.Reservation
		id, cabinID   pgtype.UUID
		userID        pgtype.UUID
		createdBy     pgtype.UUID
		checkIn       pgtype.Date
		checkOut      pgtype.Date
		total, paid   pgtype.Numeric
		paymentStatus string
		status        string
		channel       string
	)

	err := s.Scan(
		&id, &cabinID, &userID, &res.GuestName, &res.GuestPhone, &checkIn, &checkOut, &res.Guests,
		&total, &paid, &paymentStatus, &status, &channel, &res.IncludesAddOn,
		&res.Notes, &createdBy, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Reservation{}, domain.ErrReservationNotFound
		}
		return domain.Reservation{}, err
	}

	res.ID = uuid.UUID(id.Bytes)
	res.CabinID = uuid.UUID(cabinID.Bytes)
	res.UserID = optionalUUID(userID)
	res.CreatedBy = optionalUUID(createdBy)
	res.CheckIn = checkIn.Time
	res.CheckOut = checkOut.Time
	res.TotalPrice = fromNumeric(total)
	res.AmountPaid = fromNumeric(paid)
	res.PaymentStatus = domain.PaymentStatus(paymentStatus)
	res.Status = domain.Status(status)
	res.Channel = domain.Channel(channel)
	return res, nil
}

func optionalUUID(u pgtype.UUID) *uuid.UUID {
	if !u.Valid {
		return nil
	}
	id := uuid.UUID(u.Bytes)
	return &id
}
