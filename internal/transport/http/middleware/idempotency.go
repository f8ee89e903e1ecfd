package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5"

	"timekeep/internal/platform/querier"
	"timekeep/internal/transport/http/api"
)

var ErrIdempotencyConflict = errors.New("idempotency key was already used with a different request")

// IdempotencyStore persists responses of completed mutations keyed by the
// caller-supplied Idempotency-Key header, scoped per user and endpoint. A
// retried request with the same key and payload replays the stored response
// instead of re-running the mutation.
type IdempotencyStore struct {
	DB querier.Querier
}

func NewIdempotencyStore(db querier.Querier) *IdempotencyStore {
	return &IdempotencyStore{DB: db}
}

func RequestHash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// Check returns the stored response for the key, if any. A stored entry with
// a different request hash means the key was reused for a different payload.
func (s *IdempotencyStore) Check(ctx context.Context, userID, endpoint, key, requestHash string) (json.RawMessage, bool, error) {
	if s == nil || s.DB == nil {
		return nil, false, nil
	}
	var storedHash string
	var stored json.RawMessage
	err := s.DB.QueryRow(ctx, `
    SELECT request_hash, response_json
    FROM idempotency_keys
    WHERE user_id = $1 AND endpoint = $2 AND key = $3
  `, userID, endpoint, key).Scan(&storedHash, &stored)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if storedHash != requestHash {
		return nil, false, ErrIdempotencyConflict
	}
	return stored, true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, userID, endpoint, key, requestHash string, response json.RawMessage) error {
	if s == nil || s.DB == nil {
		return nil
	}
	tag, err := s.DB.Exec(ctx, `
    INSERT INTO idempotency_keys (user_id, endpoint, key, request_hash, response_json)
    VALUES ($1, $2, $3, $4, $5)
    ON CONFLICT (user_id, endpoint, key)
    DO UPDATE SET response_json = EXCLUDED.response_json
    WHERE idempotency_keys.request_hash = EXCLUDED.request_hash
  `, userID, endpoint, key, requestHash, response)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrIdempotencyConflict
	}
	return nil
}

// Replay writes the stored response when the request carries a key already
// completed with the same payload, or a conflict failure when the key was
// reused with a different one. It returns true when the response was written
// and the handler must stop. A store read failure falls through to running
// the mutation normally.
func (s *IdempotencyStore) Replay(w http.ResponseWriter, r *http.Request, userID, endpoint, requestHash string) bool {
	key := r.Header.Get("Idempotency-Key")
	if key == "" {
		return false
	}

	stored, found, err := s.Check(r.Context(), userID, endpoint, key, requestHash)
	if errors.Is(err, ErrIdempotencyConflict) {
		api.Fail(w, http.StatusConflict, "idempotency_conflict", err.Error(), GetRequestID(r.Context()))
		return true
	}
	if err != nil {
		slog.Warn("idempotency check failed", "endpoint", endpoint, "err", err)
		return false
	}
	if found {
		api.Success(w, stored, GetRequestID(r.Context()))
		return true
	}
	return false
}

// Persist records the completed mutation's response for future replays.
func (s *IdempotencyStore) Persist(r *http.Request, userID, endpoint, requestHash string, data any) {
	key := r.Header.Get("Idempotency-Key")
	if key == "" {
		return
	}

	payload, err := json.Marshal(data)
	if err != nil {
		slog.Warn("idempotency response marshal failed", "endpoint", endpoint, "err", err)
		return
	}
	if err := s.Save(r.Context(), userID, endpoint, key, requestHash, payload); err != nil {
		slog.Warn("idempotency save failed", "endpoint", endpoint, "err", err)
	}
}
