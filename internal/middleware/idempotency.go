package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// IdempotencyHeader содержит ключ идемпотентности запроса.
const IdempotencyHeader = "Idempotency-Key"

const (
	processingMarker = "PROCESSING"
	processingTTL    = 30 * time.Second
	resultTTL        = 24 * time.Hour
)

type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

type recorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *recorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *recorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// Idempotency повторяет сохранённый ответ на POST-запрос с уже обработанным
// заголовком Idempotency-Key. Ключ действует в пределах пользователя и пути.
// Пока первый запрос выполняется, повторы получают 409. Ответы 5xx не сохраняются.
// Если Redis недоступен, запрос обрабатывается без проверки.
func Idempotency(client *redis.Client, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if client == nil || r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get(IdempotencyHeader)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, _ := GetUserIDFromContext(r.Context())
			idemKey := fmt.Sprintf("idempotency:%d:%s:%s", userID, r.URL.Path, key)
			ctx := r.Context()

			acquired, err := client.SetNX(ctx, idemKey, processingMarker, processingTTL).Result()
			if err != nil {
				logger.Warn("idempotency check skipped", zap.String("key", idemKey), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			if !acquired {
				val, err := client.Get(ctx, idemKey).Result()
				if err != nil && !errors.Is(err, redis.Nil) {
					logger.Warn("idempotency lookup failed", zap.String("key", idemKey), zap.Error(err))
				}
				replay(w, val)
				return
			}

			rec := &recorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			if rec.status >= http.StatusInternalServerError {
				client.Del(ctx, idemKey)
				return
			}

			data, err := json.Marshal(storedResponse{
				Status:      rec.status,
				ContentType: rec.Header().Get("Content-Type"),
				Body:        rec.body.Bytes(),
			})
			if err == nil {
				err = client.Set(ctx, idemKey, data, resultTTL).Err()
			}
			if err != nil {
				logger.Warn("failed to store idempotent response", zap.String("key", idemKey), zap.Error(err))
			}
		})
	}
}

func replay(w http.ResponseWriter, val string) {
	var resp storedResponse
	if val == "" || val == processingMarker || json.Unmarshal([]byte(val), &resp) != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"request is already being processed"}`))
		return
	}

	w.Header().Set("X-Idempotency-Hit", "true")
	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	}
	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.Body)
}
