package middlewares

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"rentbook-backend/logger"
	"rentbook-backend/models"
	"rentbook-backend/rental"
	"rentbook-backend/repository"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Idempotency processes Idempotency-Key for mutating HTTP methods. The key
// is tenant-scoped; the first completed response is replayed for retries of
// the same request. Run it AFTER TenantScope().
func Idempotency(store repository.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		method := strings.ToUpper(c.Method())
		if method != fiber.MethodPost && method != fiber.MethodPut && method != fiber.MethodPatch && method != fiber.MethodDelete {
			return c.Next()
		}

		key := strings.TrimSpace(c.Get("Idempotency-Key"))
		if key == "" {
			return c.Next()
		}
		if len(key) > 128 {
			return fiber.NewError(fiber.StatusBadRequest, "Idempotency-Key too long")
		}

		scope, err := ScopeFrom(c)
		if err != nil {
			return err
		}

		path := c.OriginalURL() // includes query string
		body := c.Body()

		// Build deterministic request hash: method|path|body|tenant|user
		h := sha256.New()
		h.Write([]byte(method))
		h.Write([]byte{'\n'})
		h.Write([]byte(path))
		h.Write([]byte{'\n'})
		h.Write(body)
		h.Write([]byte{'\n'})
		h.Write([]byte(strconv.FormatUint(uint64(scope.TenantID), 10)))
		h.Write([]byte{'\n'})
		h.Write([]byte(scope.UserID))
		reqHash := hex.EncodeToString(h.Sum(nil))

		ctx := c.UserContext()

		// ---- Phase 1: read or create the pending record
		var existing *models.IdempotencyKey
		err = store.Atomic(ctx, func(tx repository.Tx) error {
			found, err := tx.FindIdempotencyKey(ctx, scope.TenantID, key)
			if err != nil {
				return err
			}
			if found != nil {
				existing = found
				return nil
			}
			return tx.CreateIdempotencyKey(ctx, &models.IdempotencyKey{
				TenantID:    scope.TenantID,
				Key:         key,
				RequestHash: reqHash,
				Method:      method,
				Path:        path,
				UserID:      scope.UserID,
			})
		})
		if rental.KindOf(err) == rental.KindConflict {
			// A concurrent request created the same key first.
			return fiber.NewError(fiber.StatusConflict, "request with this Idempotency-Key is in progress")
		}
		if err != nil {
			return err
		}
		if existing != nil {
			if existing.RequestHash != reqHash {
				return fiber.NewError(fiber.StatusConflict, "Idempotency-Key reuse with different request")
			}
			if existing.ResponseStatus == 0 {
				return fiber.NewError(fiber.StatusConflict, "request with this Idempotency-Key is in progress")
			}
			c.Set("Idempotent-Replayed", "true")
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Status(existing.ResponseStatus).Send(existing.ResponseBody)
		}

		// Run the handler once; render its error here so the outcome can be stored.
		if err := c.Next(); err != nil {
			if herr := c.App().Config().ErrorHandler(c, err); herr != nil {
				return herr
			}
		}

		// ---- Phase 2: store the response, or release the key on server errors
		status := c.Response().StatusCode()
		resp := c.Response().Body()
		blob := make([]byte, len(resp))
		copy(blob, resp)

		storeCtx := context.WithoutCancel(ctx)
		err = store.Atomic(storeCtx, func(tx repository.Tx) error {
			if status >= fiber.StatusInternalServerError {
				return tx.DeleteIdempotencyKey(storeCtx, scope.TenantID, key)
			}
			return tx.CompleteIdempotencyKey(storeCtx, scope.TenantID, key, status, blob, time.Now().UTC())
		})
		if err != nil {
			// best-effort: don't break the response
			logger.Log.Warn("idempotency store failed", zap.String("key", key), zap.Error(err))
		}
		return nil
	}
}
