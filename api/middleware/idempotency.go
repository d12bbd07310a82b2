package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"hash"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/shokujin-wiki/shokujin-api/api/responses"
	pkgerrors "github.com/shokujin-wiki/shokujin-api/pkg/errors"
	"github.com/shokujin-wiki/shokujin-api/pkg/logger"
	pkgredis "github.com/shokujin-wiki/shokujin-api/pkg/redis"
)

const (
	IdempotencyHeader = "Idempotency-Key"

	defaultIdempotencyTTL = 24 * time.Hour
	// a pending marker outlives any request the server would still be serving
	pendingTTL = 5 * time.Minute

	msgIdempotencyMismatch = "同じIdempotency-Keyで異なるリクエストが送信されました"
	msgIdempotencyPending  = "同じリクエストを処理中です。しばらくしてから再度お試しください"
)

// Content creating endpoints. Replaying a double submitted form returns the
// first response instead of a duplicate row or a unique violation.
var idempotentRoutes = map[string]bool{
	http.MethodPost + " /api/products":      true,
	http.MethodPost + " /api/reviews":       true,
	http.MethodPost + " /api/articles":      true,
	http.MethodPost + " /api/eats":          true,
	http.MethodPost + " /api/media/presign": true,
	http.MethodPost + " /api/media/upload":  true,
	http.MethodPost + " /api/auth/signup":   true,
}

type idempotencyRecord struct {
	Pending     bool   `json:"pending,omitempty"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
	RequestHash string `json:"request_hash,omitempty"`
}

// Idempotency replays the stored response of a request whose Idempotency-Key
// was already used by the same user on the same path. A second request that
// arrives while the first is still running gets 409. Server errors are not
// stored so the client can retry with the same key. Requests without the
// header pass through.
func Idempotency(store pkgredis.IdempotencyStore, ttl time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
			if id == "" || store == nil || !idempotentRoutes[r.Method+" "+routePattern(r)] {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			key := store.IdempotencyKey(idempotencyScope(r), id)

			stored, err := store.Get(ctx, key)
			if err != nil && !errors.Is(err, redis.Nil) {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, msgDependency))
				return
			}
			if stored != "" {
				replay(ctx, logg, w, r, stored)
				return
			}

			marker, _ := json.Marshal(idempotencyRecord{Pending: true})
			acquired, err := store.SetNX(ctx, key, string(marker), pendingTTL)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, msgDependency))
				return
			}
			if !acquired {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, msgIdempotencyPending))
				return
			}

			hasher := sha256.New()
			body := r.Body
			r.Body = readCloser{Reader: io.TeeReader(body, hasher), Closer: body}

			capture := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(capture, r)
			_, _ = io.Copy(io.Discard, r.Body)

			if capture.statusCode() >= http.StatusInternalServerError {
				if err := store.Del(ctx, key); err != nil {
					logError(ctx, logg, "release idempotency key", err)
				}
				return
			}

			payload, err := json.Marshal(idempotencyRecord{
				Status:      capture.statusCode(),
				ContentType: capture.Header().Get("Content-Type"),
				Body:        capture.body.Bytes(),
				RequestHash: sum(hasher),
			})
			if err == nil {
				err = store.Set(ctx, key, string(payload), ttl)
			}
			if err != nil {
				logError(ctx, logg, "persist idempotency record", err)
			}
		})
	}
}

func replay(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, r *http.Request, stored string) {
	var record idempotencyRecord
	if err := json.Unmarshal([]byte(stored), &record); err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, msgDependency))
		return
	}
	if record.Pending {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, msgIdempotencyPending))
		return
	}

	hasher := sha256.New()
	if _, err := io.Copy(hasher, r.Body); err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "リクエストの形式が正しくありません"))
		return
	}
	if sum(hasher) != record.RequestHash {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, msgIdempotencyMismatch))
		return
	}

	if record.ContentType != "" {
		w.Header().Set("Content-Type", record.ContentType)
	}
	w.Header().Set("Idempotent-Replayed", "true")
	w.WriteHeader(record.Status)
	_, _ = w.Write(record.Body)
}

func idempotencyScope(r *http.Request) string {
	return strconv.FormatInt(UserIDFromContext(r.Context()), 10) + "|" + r.Method + "|" + r.URL.Path
}

func sum(h hash.Hash) string {
	return hex.EncodeToString(h.Sum(nil))
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *responseCapture) WriteHeader(code int) {
	if c.status == 0 {
		c.status = code
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

func (c *responseCapture) statusCode() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}

func logError(ctx context.Context, logg *logger.Logger, msg string, err error) {
	if logg != nil && err != nil {
		logg.Error(ctx, msg, err)
	}
}
