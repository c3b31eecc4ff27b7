package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/relaygate/internal/domain"
)

// ActivityRepo — Store Gateway для таблицы activities.
type ActivityRepo struct {
	pool *pgxpool.Pool
}

// NewActivityRepo создаёт новый ActivityRepo.
func NewActivityRepo(pool *pgxpool.Pool) *ActivityRepo {
	return &ActivityRepo{pool: pool}
}

// Insert вставляет новую activity. Возвращает ErrAlreadyExists при
// коллизии id.
func (r *ActivityRepo) Insert(ctx context.Context, a *domain.Activity) error {
	headersJSON, err := json.Marshal(a.Headers)
	if err != nil {
		return fmt.Errorf("marshal headers: %w", err)
	}

	query := `
		INSERT INTO activities (id, url, method, reply_url, reply_method, state, node_id,
		                        created_at, headers, payload, content_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = r.pool.Exec(ctx, query,
		a.ID,
		a.URL,
		a.Method,
		a.ReplyURL,
		a.ReplyMethod,
		a.State,
		nullString(a.NodeID),
		a.CreatedAt,
		headersJSON,
		a.Payload,
		a.ContentType,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// GetStatus возвращает {id, state} без остальных полей — используется
// статус-эндпоинтом.
func (r *ActivityRepo) GetStatus(ctx context.Context, id uuid.UUID) (domain.Activity, error) {
	var a domain.Activity
	err := r.pool.QueryRow(ctx, `SELECT id, state FROM activities WHERE id = $1`, id).
		Scan(&a.ID, &a.State)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Activity{}, ErrNotFound
	}
	if err != nil {
		return domain.Activity{}, fmt.Errorf("get activity status: %w", err)
	}
	return a, nil
}

// GetByID возвращает activity целиком.
func (r *ActivityRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Activity, error) {
	query := `
		SELECT id, url, method, reply_url, reply_method, state, node_id,
		       created_at, headers, payload, content_type
		FROM activities
		WHERE id = $1
	`
	return r.scan(r.pool.QueryRow(ctx, query, id))
}

// UpdateState — идемпотентная запись state (и опционально nodeId).
// Отклоняет значения, не входящие в шесть допустимых состояний, чтобы
// опечатка вызывающего не попала в колонку state молча.
func (r *ActivityRepo) UpdateState(ctx context.Context, id uuid.UUID, state domain.State, nodeID string) error {
	if !state.IsValid() {
		return ErrInvalidState
	}
	result, err := r.pool.Exec(ctx,
		`UPDATE activities SET state = $2, node_id = $3 WHERE id = $1`,
		id, state, nullString(nodeID),
	)
	if err != nil {
		return fmt.Errorf("update activity state: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// LeaseEarliest выбирает самую раннюю по createdAt activity в одном из
// leasable states, атомарно переводит её в SCHEDULED с данным nodeId
// и возвращает. Возвращает ErrNotFound, если таких activity нет.
//
// SELECT ... FOR UPDATE SKIP LOCKED внутри транзакции даёт безопасную
// конкурентную выборку: несколько Send Worker'ов могут лизинговать
// параллельно без эксклюзивных блокировок поверх БД.
func (r *ActivityRepo) LeaseEarliest(ctx context.Context, nodeID string) (*domain.Activity, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		SELECT id, url, method, reply_url, reply_method, state, node_id,
		       created_at, headers, payload, content_type
		FROM activities
		WHERE state = ANY($1)
		ORDER BY created_at ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`
	a, err := r.scan(tx.QueryRow(ctx, query, statesToStrings(domain.LeasableStates())))
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE activities SET state = $2, node_id = $3 WHERE id = $1`,
		a.ID, domain.StateScheduled, nodeID,
	); err != nil {
		return nil, fmt.Errorf("lease activity: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit lease: %w", err)
	}

	a.State = domain.StateScheduled
	a.NodeID = nodeID
	return a, nil
}

// SelectEarliestByStates возвращает activities в одном из states,
// упорядоченные по createdAt ASC.
func (r *ActivityRepo) SelectEarliestByStates(ctx context.Context, states []domain.State, limit int) ([]domain.Activity, error) {
	query := `
		SELECT id, url, method, reply_url, reply_method, state, node_id,
		       created_at, headers, payload, content_type
		FROM activities
		WHERE state = ANY($1)
		ORDER BY created_at ASC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, statesToStrings(states), limit)
	if err != nil {
		return nil, fmt.Errorf("select earliest by states: %w", err)
	}
	defer rows.Close()

	var out []domain.Activity
	for rows.Next() {
		a, err := r.scanRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// RequeueSentFailed переводит до limit самых ранних по createdAt activities
// в SENT_FAILED обратно в SCHEDULED одним bulk-запросом и возвращает их
// число. Идемпотентно: повторный вызов без новых
// SENT_FAILED строк не меняет множество SCHEDULED.
func (r *ActivityRepo) RequeueSentFailed(ctx context.Context, nodeID string, limit int) (int, error) {
	query := `
		UPDATE activities
		SET state = $2, node_id = $3
		WHERE id IN (
			SELECT id FROM activities
			WHERE state = 'SENT_FAILED'
			ORDER BY created_at ASC
			LIMIT $1
		)
	`
	result, err := r.pool.Exec(ctx, query, limit, domain.StateScheduled, nodeID)
	if err != nil {
		return 0, fmt.Errorf("requeue sent_failed: %w", err)
	}
	return int(result.RowsAffected()), nil
}

// SelectCompletedExpiredJoin возвращает (Activity, Response) пары для
// COMPLETED activities с истёкшим retention period.
//
// Предфильтр по retention делает сама БД (дёшево на индексе по state и
// createdAt); IsExpired переприменяется к каждой строке здесь, чтобы
// граница "истекла или нет" определялась ровно в одном месте кода, а не
// дублировалась между Go и SQL по отдельности.
func (r *ActivityRepo) SelectCompletedExpiredJoin(ctx context.Context, now time.Time, retention time.Duration, limit int) ([]ExpiredPair, error) {
	query := `
		SELECT a.id, a.created_at, r.id, r.response_id
		FROM activities a
		LEFT JOIN responses r ON r.response_id = a.id
		WHERE a.state = 'COMPLETED'
		  AND $1::timestamptz - a.created_at > $2
		ORDER BY a.created_at ASC
		LIMIT $3
	`
	rows, err := r.pool.Query(ctx, query, now, retention, limit)
	if err != nil {
		return nil, fmt.Errorf("select completed expired: %w", err)
	}
	defer rows.Close()

	var out []ExpiredPair
	for rows.Next() {
		var pair ExpiredPair
		var createdAt time.Time
		var responseID, responseIDFK *uuid.UUID
		if err := rows.Scan(&pair.ActivityID, &createdAt, &responseID, &responseIDFK); err != nil {
			return nil, fmt.Errorf("scan expired pair: %w", err)
		}
		pair.CreatedAt = createdAt
		a := domain.Activity{State: domain.StateCompleted, CreatedAt: createdAt}
		if !a.IsExpired(now, retention) {
			continue
		}
		if responseID != nil {
			pair.ResponseID = *responseID
			pair.HasResponse = true
		}
		out = append(out, pair)
	}
	return out, rows.Err()
}

// Delete удаляет activity по id. Вызывается только Cleanup Worker'ом
// после удаления её Response.
func (r *ActivityRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM activities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	return nil
}

// ExpiredPair — результат SelectCompletedExpiredJoin: id просроченной
// activity и, если есть, id её response.
type ExpiredPair struct {
	ActivityID  uuid.UUID
	CreatedAt   time.Time
	ResponseID  uuid.UUID
	HasResponse bool
}

// --- Helpers ---

func (r *ActivityRepo) scan(row pgx.Row) (*domain.Activity, error) {
	var a domain.Activity
	var nodeID *string
	var headersJSON []byte

	err := row.Scan(
		&a.ID, &a.URL, &a.Method, &a.ReplyURL, &a.ReplyMethod, &a.State, &nodeID,
		&a.CreatedAt, &headersJSON, &a.Payload, &a.ContentType,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan activity: %w", err)
	}
	if nodeID != nil {
		a.NodeID = *nodeID
	}
	if headersJSON != nil {
		if err := json.Unmarshal(headersJSON, &a.Headers); err != nil {
			return nil, fmt.Errorf("unmarshal headers: %w", err)
		}
	}
	return &a, nil
}

func (r *ActivityRepo) scanRows(rows pgx.Rows) (*domain.Activity, error) {
	var a domain.Activity
	var nodeID *string
	var headersJSON []byte

	err := rows.Scan(
		&a.ID, &a.URL, &a.Method, &a.ReplyURL, &a.ReplyMethod, &a.State, &nodeID,
		&a.CreatedAt, &headersJSON, &a.Payload, &a.ContentType,
	)
	if err != nil {
		return nil, fmt.Errorf("scan activity: %w", err)
	}
	if nodeID != nil {
		a.NodeID = *nodeID
	}
	if headersJSON != nil {
		if err := json.Unmarshal(headersJSON, &a.Headers); err != nil {
			return nil, fmt.Errorf("unmarshal headers: %w", err)
		}
	}
	return &a, nil
}

func statesToStrings(states []domain.State) []string {
	out := make([]string, len(states))
	for i, s := range states {
		out[i] = string(s)
	}
	return out
}
