package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"leavestride/internal/transport/http/api"
)

var ErrIdempotencyConflict = errors.New("idempotency key conflicts with existing request")

const (
	IdempotencyHeader = "Idempotency-Key"
	maxIdempotencyKey = 200
)

// StoredResponse is the first response produced for an idempotency key.
type StoredResponse struct {
	RequestHash string          `json:"requestHash"`
	Status      int             `json:"status"`
	Body        json.RawMessage `json:"body"`
}

type IdempotencyStore interface {
	// Check returns the stored response for key. A stored response with a different
	// request hash yields ErrIdempotencyConflict.
	Check(ctx context.Context, key, requestHash string) (StoredResponse, bool, error)
	Save(ctx context.Context, key string, response StoredResponse, ttl time.Duration) error
}

func RequestHash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

type RedisIdempotencyStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisIdempotencyStore(client redis.UniversalClient) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client, prefix: "leavestride:idempotency:"}
}

func (s *RedisIdempotencyStore) Check(ctx context.Context, key, requestHash string) (StoredResponse, bool, error) {
	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return StoredResponse{}, false, nil
	}
	if err != nil {
		return StoredResponse{}, false, err
	}
	var stored StoredResponse
	if err := json.Unmarshal(raw, &stored); err != nil {
		return StoredResponse{}, false, err
	}
	if stored.RequestHash != requestHash {
		return StoredResponse{}, false, ErrIdempotencyConflict
	}
	return stored, true, nil
}

// Save keeps the first response; a later save for the same key is ignored.
func (s *RedisIdempotencyStore) Save(ctx context.Context, key string, response StoredResponse, ttl time.Duration) error {
	payload, err := json.Marshal(response)
	if err != nil {
		return err
	}
	return s.client.SetNX(ctx, s.prefix+key, payload, ttl).Err()
}

type memoryEntry struct {
	response StoredResponse
	expires  time.Time
}

type MemoryIdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryIdempotencyStore() *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{entries: map[string]memoryEntry{}, now: time.Now}
}

func (s *MemoryIdempotencyStore) Check(_ context.Context, key, requestHash string) (StoredResponse, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	if !ok {
		return StoredResponse{}, false, nil
	}
	if s.now().After(entry.expires) {
		delete(s.entries, key)
		return StoredResponse{}, false, nil
	}
	if entry.response.RequestHash != requestHash {
		return StoredResponse{}, false, ErrIdempotencyConflict
	}
	return entry.response, true, nil
}

func (s *MemoryIdempotencyStore) Save(_ context.Context, key string, response StoredResponse, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, entry := range s.entries {
		if now.After(entry.expires) {
			delete(s.entries, k)
		}
	}
	if _, exists := s.entries[key]; !exists {
		s.entries[key] = memoryEntry{response: response, expires: now.Add(ttl)}
	}
	return nil
}

type captureWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (c *captureWriter) WriteHeader(code int) {
	c.status = code
	c.ResponseWriter.WriteHeader(code)
}

func (c *captureWriter) Write(p []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(p)
	return c.ResponseWriter.Write(p)
}

// Idempotency replays the stored response when a request repeats its Idempotency-Key
// with the same body, and rejects reuse of a key with a different body. Keys are scoped
// to the caller and route. Server errors are not stored.
func Idempotency(store IdempotencyStore, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
			if store == nil || key == "" || r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}
			requestID := GetRequestID(r.Context())
			if len(key) > maxIdempotencyKey {
				api.Fail(w, http.StatusBadRequest, "invalid_idempotency_key", "Idempotency-Key is too long", requestID)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				api.Fail(w, http.StatusBadRequest, "invalid_payload", "unable to read request body", requestID)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			scoped := actorOrIPKey(r) + ":" + r.Method + ":" + r.URL.Path + ":" + key
			hash := RequestHash(body)
			stored, found, err := store.Check(r.Context(), scoped, hash)
			switch {
			case errors.Is(err, ErrIdempotencyConflict):
				api.Fail(w, http.StatusConflict, "idempotency_conflict", "Idempotency-Key was already used with a different request", requestID)
				return
			case err != nil:
				slog.Warn("idempotency lookup failed", "err", err, "request_id", requestID)
			case found:
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Idempotent-Replayed", "true")
				w.WriteHeader(stored.Status)
				_, _ = w.Write(stored.Body)
				return
			}

			capture := &captureWriter{ResponseWriter: w}
			next.ServeHTTP(capture, r)
			if capture.status == 0 || capture.status >= http.StatusInternalServerError {
				return
			}
			if err := store.Save(context.WithoutCancel(r.Context()), scoped, StoredResponse{
				RequestHash: hash,
				Status:      capture.status,
				Body:        capture.body.Bytes(),
			}, ttl); err != nil {
				slog.Warn("idempotency save failed", "err", err, "request_id", requestID)
			}
		})
	}
}
