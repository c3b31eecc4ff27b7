package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/relaygate/internal/domain"
)

// ResponseRepo — Store Gateway для таблицы responses.
type ResponseRepo struct {
	pool *pgxpool.Pool
}

// NewResponseRepo создаёт новый ResponseRepo.
func NewResponseRepo(pool *pgxpool.Pool) *ResponseRepo {
	return &ResponseRepo{pool: pool}
}

// InsertAndMarkSent сохраняет Response и переводит Activity в SENT одной
// транзакцией, так что снаружи никогда не видно Response без
// соответствующего перехода в SENT или наоборот.
func (r *ResponseRepo) InsertAndMarkSent(ctx context.Context, resp *domain.Response, activityID uuid.UUID, nodeID string) error {
	headersJSON, err := json.Marshal(resp.Headers)
	if err != nil {
		return fmt.Errorf("marshal headers: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO responses (id, response_id, status_code, headers, payload, content_type)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, resp.ID, resp.ResponseID, resp.StatusCode, headersJSON, resp.Payload, resp.ContentType)
	if err != nil {
		return fmt.Errorf("insert response: %w", err)
	}

	result, err := tx.Exec(ctx,
		`UPDATE activities SET state = $2, node_id = $3 WHERE id = $1`,
		activityID, domain.StateSent, nodeID,
	)
	if err != nil {
		return fmt.Errorf("mark activity sent: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit response+sent: %w", err)
	}
	return nil
}

// GetByActivityID возвращает Response для данной activity. Response
// никогда не перезаписывается, поэтому на activity — не более одной строки.
func (r *ResponseRepo) GetByActivityID(ctx context.Context, activityID uuid.UUID) (*domain.Response, error) {
	query := `
		SELECT id, response_id, status_code, headers, payload, content_type
		FROM responses
		WHERE response_id = $1
	`
	return r.scan(r.pool.QueryRow(ctx, query, activityID))
}

// ListResponsesFor возвращает все responses для activity; в здоровой
// системе — не более одной строки.
func (r *ResponseRepo) ListResponsesFor(ctx context.Context, activityID uuid.UUID) ([]domain.Response, error) {
	query := `
		SELECT id, response_id, status_code, headers, payload, content_type
		FROM responses
		WHERE response_id = $1
	`
	rows, err := r.pool.Query(ctx, query, activityID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()

	var out []domain.Response
	for rows.Next() {
		resp, err := r.scanRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *resp)
	}
	return out, rows.Err()
}

// Delete удаляет response по id. Cleanup Worker вызывает это перед
// удалением самой activity, чтобы не нарушить foreign key.
func (r *ResponseRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM responses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete response: %w", err)
	}
	return nil
}

func (r *ResponseRepo) scan(row pgx.Row) (*domain.Response, error) {
	var resp domain.Response
	var headersJSON []byte

	err := row.Scan(&resp.ID, &resp.ResponseID, &resp.StatusCode, &headersJSON, &resp.Payload, &resp.ContentType)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan response: %w", err)
	}
	if headersJSON != nil {
		if err := json.Unmarshal(headersJSON, &resp.Headers); err != nil {
			return nil, fmt.Errorf("unmarshal headers: %w", err)
		}
	}
	return &resp, nil
}

func (r *ResponseRepo) scanRows(rows pgx.Rows) (*domain.Response, error) {
	var resp domain.Response
	var headersJSON []byte

	err := rows.Scan(&resp.ID, &resp.ResponseID, &resp.StatusCode, &headersJSON, &resp.Payload, &resp.ContentType)
	if err != nil {
		return nil, fmt.Errorf("scan response: %w", err)
	}
	if headersJSON != nil {
		if err := json.Unmarshal(headersJSON, &resp.Headers); err != nil {
			return nil, fmt.Errorf("unmarshal headers: %w", err)
		}
	}
	return &resp, nil
}
