package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/teamdesk-hq/teamdesk-backend/internal/calls/domain"
)

// CallRepository is the Postgres implementation of domain.CallRepository.
type CallRepository struct {
	db *pgxpool.Pool
}

func NewCallRepository(db *pgxpool.Pool) *CallRepository {
	return &CallRepository{db: db}
}

const callColumns = `
	id::text, stream_call_id, call_type, initiator_id::text, participant_ids,
	status, scheduled_time, start_time, end_time, duration, recording_url,
	metadata, created_at
`

func (r *CallRepository) scanCall(row pgx.Row) (*domain.Call, error) {
	var c domain.Call
	var callType, status string
	var metadataJSON []byte

	err := row.Scan(
		&c.ID,
		&c.StreamCallID,
		&callType,
		&c.InitiatorID,
		&c.ParticipantIDs,
		&status,
		&c.ScheduledTime,
		&c.StartTime,
		&c.EndTime,
		&c.Duration,
		&c.RecordingURL,
		&metadataJSON,
		&c.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCallNotFound
	}
	if err != nil {
		return nil, err
	}

	c.CallType = domain.CallType(callType)
	c.Status = domain.CallStatus(status)
	if c.ParticipantIDs == nil {
		c.ParticipantIDs = []string{}
	}
	if len(metadataJSON) > 0 {
		var md domain.CallMetadata
		if err := json.Unmarshal(metadataJSON, &md); err == nil {
			c.Metadata = &md
		}
	}
	return &c, nil
}

func (r *CallRepository) Insert(ctx context.Context, c *domain.Call) error {
	metadataJSON, err := marshalMetadata(c.Metadata)
	if err != nil {
		return err
	}

	q := `
		INSERT INTO calls (stream_call_id, call_type, initiator_id,
			participant_ids, status, scheduled_time, start_time, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id::text, created_at
	`
	err = r.db.QueryRow(ctx, q,
		c.StreamCallID,
		string(c.CallType),
		c.InitiatorID,
		c.ParticipantIDs,
		string(c.Status),
		c.ScheduledTime,
		c.StartTime,
		metadataJSON,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert call: %w", err)
	}
	return nil
}

func (r *CallRepository) GetByID(ctx context.Context, id string) (*domain.Call, error) {
	q := `SELECT ` + callColumns + ` FROM calls WHERE id = $1`
	return r.scanCall(r.db.QueryRow(ctx, q, id))
}

func (r *CallRepository) GetByStreamCallID(ctx context.Context, streamCallID string) (*domain.Call, error) {
	q := `SELECT ` + callColumns + ` FROM calls WHERE stream_call_id = $1`
	return r.scanCall(r.db.QueryRow(ctx, q, streamCallID))
}

func (r *CallRepository) ListForUser(ctx context.Context, userID string, status *domain.CallStatus) ([]*domain.Call, error) {
	q := `SELECT ` + callColumns + ` FROM calls
		WHERE (initiator_id = $1 OR $1::text = ANY(participant_ids))`
	args := []any{userID}
	if status != nil {
		q += ` AND status = $2`
		args = append(args, string(*status))
	}
	q += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list calls: %w", err)
	}
	defer rows.Close()

	var calls []*domain.Call
	for rows.Next() {
		c, err := r.scanCall(rows)
		if err != nil {
			return nil, err
		}
		calls = append(calls, c)
	}
	return calls, rows.Err()
}

// UpdateStatus writes the transition. The WHERE clause keeps terminal
// rows immutable at the store level: last-write-wins is accepted between
// two racing non-terminal writers, but an ended or cancelled call can
// never be resurrected.
func (r *CallRepository) UpdateStatus(ctx context.Context, id string, upd *domain.StatusUpdate, startTime *int64) error {
	q := `
		UPDATE calls
		SET status = $2,
			start_time = coalesce($3, start_time),
			end_time = coalesce($4, end_time),
			duration = coalesce($5, duration),
			recording_url = coalesce($6, recording_url)
		WHERE id = $1 AND status NOT IN ('ended', 'cancelled')
	`
	tag, err := r.db.Exec(ctx, q, id,
		string(upd.Status), startTime, upd.EndTime, upd.Duration, upd.RecordingURL)
	if err != nil {
		return fmt.Errorf("update call status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return domain.ErrInvalidTransition
	}
	return nil
}

func (r *CallRepository) AppendParticipant(ctx context.Context, id, participantID string) error {
	q := `
		UPDATE calls
		SET participant_ids = array_append(participant_ids, $2)
		WHERE id = $1 AND NOT ($2 = ANY(participant_ids))
	`
	tag, err := r.db.Exec(ctx, q, id, participantID)
	if err != nil {
		return fmt.Errorf("append participant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return domain.ErrDuplicateParticipant
	}
	return nil
}

func (r *CallRepository) ReplaceMetadata(ctx context.Context, id string, md *domain.CallMetadata) error {
	metadataJSON, err := marshalMetadata(md)
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx,
		`UPDATE calls SET metadata = $2 WHERE id = $1`,
		id, metadataJSON,
	)
	if err != nil {
		return fmt.Errorf("replace metadata: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCallNotFound
	}
	return nil
}

func (r *CallRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM calls WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete call: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCallNotFound
	}
	return nil
}

func marshalMetadata(md *domain.CallMetadata) ([]byte, error) {
	if md == nil {
		return nil, nil
	}
	b, err := json.Marshal(md)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return b, nil
}
