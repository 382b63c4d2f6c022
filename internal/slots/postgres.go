package slots

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS interview_slots (
	id                   text PRIMARY KEY,
	start_at_utc         timestamptz NOT NULL,
	end_at_utc           timestamptz NOT NULL,
	status               text NOT NULL DEFAULT 'open' CHECK (status IN ('open','booked')),
	candidate_ref        text NOT NULL DEFAULT '',
	meeting_type         text NOT NULL CHECK (meeting_type IN ('online','onsite')),
	title                text NOT NULL DEFAULT '',
	hiring_manager_email text NOT NULL DEFAULT '',
	room_id              text,
	room_name            text,
	room_email           text,
	room_building        text,
	join_url             text NOT NULL DEFAULT '',
	claim_candidate_ref  text,
	claim_name           text,
	claim_email          text,
	claimed_at           timestamptz,
	sequence             integer NOT NULL DEFAULT 0,
	created_at           timestamptz NOT NULL DEFAULT now(),
	CHECK (end_at_utc > start_at_utc),
	CHECK (status = 'open' OR claim_candidate_ref IS NOT NULL)
);
CREATE INDEX IF NOT EXISTS interview_slots_open_idx ON interview_slots (status, start_at_utc);
`

const slotColumns = `id,start_at_utc,end_at_utc,status,candidate_ref,meeting_type,title,hiring_manager_email,
	room_id,room_name,room_email,room_building,join_url,
	claim_candidate_ref,claim_name,claim_email,claimed_at,sequence,created_at`

// PostgresStore keeps slots in the interview_slots table.
type PostgresStore struct {
	DB *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{DB: pool}
}

// EnsureSchema creates the table and index when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.DB.Exec(ctx, schema)
	return persistErr("migrate", err)
}

func (s *PostgresStore) Insert(ctx context.Context, slots []Slot) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return persistErr("insert", err)
	}
	defer tx.Rollback(ctx)

	q := `INSERT INTO interview_slots
	      (id, start_at_utc, end_at_utc, status, candidate_ref, meeting_type, title, hiring_manager_email,
	       room_id, room_name, room_email, room_building, sequence, created_at)
	      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`
	for _, sl := range slots {
		var roomID, roomName, roomEmail, roomBuilding *string
		if sl.Room != nil {
			roomID, roomName, roomEmail, roomBuilding = &sl.Room.ID, &sl.Room.Name, &sl.Room.Email, &sl.Room.Building
		}
		if _, err := tx.Exec(ctx, q,
			sl.ID, sl.StartTime.UTC(), sl.EndTime.UTC(), string(sl.Status), sl.CandidateRef,
			string(sl.MeetingType), sl.Title, sl.HiringManagerEmail,
			roomID, roomName, roomEmail, roomBuilding, sl.Sequence, sl.CreatedAt.UTC()); err != nil {
			return persistErr("insert", err)
		}
	}
	return persistErr("insert", tx.Commit(ctx))
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Slot, error) {
	q := `SELECT ` + slotColumns + ` FROM interview_slots WHERE id=$1`
	sl, err := scanSlot(s.DB.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Slot{}, ErrSlotNotFound
	}
	if err != nil {
		return Slot{}, persistErr("get", err)
	}
	return sl, nil
}

func (s *PostgresStore) ListOpen(ctx context.Context, candidateRef string, after time.Time) ([]Slot, error) {
	q := `SELECT ` + slotColumns + ` FROM interview_slots
	      WHERE status='open' AND start_at_utc > $1 AND (candidate_ref='' OR candidate_ref=$2)
	      ORDER BY start_at_utc, id`
	rows, err := s.DB.Query(ctx, q, after.UTC(), candidateRef)
	if err != nil {
		return nil, persistErr("list", err)
	}
	defer rows.Close()

	var out []Slot
	for rows.Next() {
		sl, err := scanSlot(rows)
		if err != nil {
			return nil, persistErr("list", err)
		}
		out = append(out, sl)
	}
	return out, persistErr("list", rows.Err())
}

// ClaimOpen flips status open -> booked in one statement; the WHERE clause is
// the compare-and-swap, so at most one concurrent caller gets a row back.
func (s *PostgresStore) ClaimOpen(ctx context.Context, id string, claim Claim) (Slot, error) {
	q := `UPDATE interview_slots
	      SET status='booked', claim_candidate_ref=$2, claim_name=$3, claim_email=$4, claimed_at=$5
	      WHERE id=$1 AND status='open' AND (candidate_ref='' OR candidate_ref=$2)
	      RETURNING ` + slotColumns
	sl, err := scanSlot(s.DB.QueryRow(ctx, q, id, claim.CandidateRef, claim.Name, claim.Email, claim.ClaimedAt.UTC()))
	if err == nil {
		return sl, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Slot{}, persistErr("claim", err)
	}

	var status string
	err = s.DB.QueryRow(ctx, `SELECT status FROM interview_slots WHERE id=$1`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return Slot{}, ErrSlotNotFound
	}
	if err != nil {
		return Slot{}, persistErr("claim", err)
	}
	return Slot{}, ErrSlotUnavailable
}

func (s *PostgresStore) AttachMeeting(ctx context.Context, id, joinURL string, room *RoomRef) error {
	var roomID, roomName, roomEmail, roomBuilding *string
	if room != nil {
		roomID, roomName, roomEmail, roomBuilding = &room.ID, &room.Name, &room.Email, &room.Building
	}
	q := `UPDATE interview_slots
	      SET join_url=$2,
	          room_id=COALESCE($3, room_id), room_name=COALESCE($4, room_name),
	          room_email=COALESCE($5, room_email), room_building=COALESCE($6, room_building)
	      WHERE id=$1 AND status='booked'`
	res, err := s.DB.Exec(ctx, q, id, joinURL, roomID, roomName, roomEmail, roomBuilding)
	if err != nil {
		return persistErr("attach meeting", err)
	}
	if res.RowsAffected() == 0 {
		return ErrSlotNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteOpen(ctx context.Context, id string) error {
	res, err := s.DB.Exec(ctx, `DELETE FROM interview_slots WHERE id=$1 AND status='open'`, id)
	if err != nil {
		return persistErr("delete", err)
	}
	if res.RowsAffected() == 0 {
		return ErrSlotNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteOpenEndedBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.DB.Exec(ctx, `DELETE FROM interview_slots WHERE status='open' AND end_at_utc < $1`, before.UTC())
	if err != nil {
		return 0, persistErr("purge", err)
	}
	return res.RowsAffected(), nil
}

func scanSlot(row pgx.Row) (Slot, error) {
	var (
		sl                                        Slot
		status, meetingType                       string
		roomID, roomName, roomEmail, roomBuilding *string
		claimRef, claimName, claimEmail           *string
		claimedAt                                 *time.Time
	)
	if err := row.Scan(&sl.ID, &sl.StartTime, &sl.EndTime, &status, &sl.CandidateRef, &meetingType,
		&sl.Title, &sl.HiringManagerEmail,
		&roomID, &roomName, &roomEmail, &roomBuilding, &sl.JoinURL,
		&claimRef, &claimName, &claimEmail, &claimedAt, &sl.Sequence, &sl.CreatedAt); err != nil {
		return Slot{}, err
	}
	sl.Status = Status(status)
	sl.MeetingType = MeetingType(meetingType)
	sl.StartTime = sl.StartTime.UTC()
	sl.EndTime = sl.EndTime.UTC()
	sl.CreatedAt = sl.CreatedAt.UTC()
	if roomEmail != nil {
		sl.Room = &RoomRef{ID: deref(roomID), Name: deref(roomName), Email: *roomEmail, Building: deref(roomBuilding)}
	}
	if claimRef != nil {
		sl.Claim = &Claim{CandidateRef: *claimRef, Name: deref(claimName), Email: deref(claimEmail)}
		if claimedAt != nil {
			sl.Claim.ClaimedAt = claimedAt.UTC()
		}
	}
	return sl, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
