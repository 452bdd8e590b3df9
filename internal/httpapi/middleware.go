/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package httpapi

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"creator-ledger-go/internal/models"
	"creator-ledger-go/internal/store"

	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"
	"go.uber.org/zap"
)

const (
	headerApiKey    = "X-Api-Key"
	headerTimestamp = "X-Timestamp"
	headerSignature = "X-Signature"

	defaultSignatureWindow = 5 * time.Minute
)

// RoleStore resolves the roles of an authenticated user.
type RoleStore interface {
	GetRoles(ctx context.Context, userId string) ([]string, error)
}

// requestLogger logs one structured line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			zap.L().Info("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		}()
		next.ServeHTTP(ww, r)
	})
}

// rateLimit rejects requests beyond a global token bucket. A non-positive limit disables it.
func rateLimit(perSecond float64, burst int) func(http.Handler) http.Handler {
	if perSecond <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeJSON(w, http.StatusTooManyRequests, ErrorResponse{Error: "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// paymentAuth authenticates payment callers before any body is processed: API key, timestamp
// freshness, and an HMAC-SHA256 of "<timestamp>.<body>" under the signing secret.
func paymentAuth(cfg models.AuthConfig, now func() time.Time) func(http.Handler) http.Handler {
	window := cfg.SignatureWindow
	if window <= 0 {
		window = defaultSignatureWindow
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := r.Header.Get(headerApiKey)
			if cfg.PaymentApiKey == "" || subtle.ConstantTimeCompare([]byte(apiKey), []byte(cfg.PaymentApiKey)) != 1 {
				rejectPayment(w, r, "invalid api key")
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
			if err != nil {
				writeError(w, fmt.Errorf("%w: unreadable body", store.ErrValidationFailed))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			signature := r.Header.Get(headerSignature)
			timestamp := r.Header.Get(headerTimestamp)
			signed := false

			if signature != "" || cfg.RequireSignature {
				if err := verifySignature(cfg.PaymentSigningSecret, timestamp, signature, body, now(), window); err != nil {
					rejectPayment(w, r, err.Error())
					return
				}
				signed = true
			}

			ctx := models.WithPaymentContext(r.Context(), &models.PaymentContext{
				ApiKeyId:  keyId(apiKey),
				Signed:    signed,
				RequestId: middleware.GetReqID(r.Context()),
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func rejectPayment(w http.ResponseWriter, r *http.Request, reason string) {
	zap.L().Warn("Payment request rejected",
		zap.String("reason", reason),
		zap.String("remote_addr", r.RemoteAddr),
		zap.String("request_id", middleware.GetReqID(r.Context())))
	writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: fmt.Sprintf("%v: %s", store.ErrUnauthorized, reason)})
}

func verifySignature(secret, timestamp, signature string, body []byte, now time.Time, window time.Duration) error {
	if secret == "" {
		return fmt.Errorf("%w: signing secret not configured", store.ErrInvalidSignature)
	}
	if timestamp == "" || signature == "" {
		return fmt.Errorf("%w: missing timestamp or signature", store.ErrInvalidSignature)
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: malformed timestamp", store.ErrInvalidSignature)
	}
	skew := now.Sub(time.Unix(ts, 0))
	if skew > window || skew < -window {
		return fmt.Errorf("%w: timestamp outside allowed window", store.ErrInvalidSignature)
	}

	got, err := hex.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("%w: signature is not hex", store.ErrInvalidSignature)
	}
	if !hmac.Equal(got, signPayload(secret, timestamp, body)) {
		return fmt.Errorf("%w: signature mismatch", store.ErrInvalidSignature)
	}
	return nil
}

// signPayload computes HMAC-SHA256("<timestamp>.<body>").
func signPayload(secret, timestamp string, body []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return mac.Sum(nil)
}

// SignPayload returns the hex signature a payment caller must send.
func SignPayload(secret, timestamp string, body []byte) string {
	return hex.EncodeToString(signPayload(secret, timestamp, body))
}

// keyId is a non-secret handle for an API key, safe to log and to store as audit actor.
func keyId(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return "key_" + hex.EncodeToString(sum[:4])
}

// adminAuth verifies the bearer token and attaches the caller's principal. Only users holding
// the admin role get through.
func adminAuth(cfg models.AuthConfig, roles RoleStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || raw == "" {
				writeError(w, fmt.Errorf("%w: missing bearer token", store.ErrUnauthorized))
				return
			}

			claims, err := ParseAdminToken(cfg, raw)
			if err != nil {
				zap.L().Warn("Invalid admin token", zap.Error(err))
				writeError(w, err)
				return
			}

			userRoles, err := roles.GetRoles(r.Context(), claims.Subject)
			if err != nil {
				writeError(w, fmt.Errorf("failed to load roles: %w", err))
				return
			}

			principal := &models.Principal{UserId: claims.Subject, Roles: userRoles}
			if !principal.IsAdmin() {
				zap.L().Warn("Non-admin attempted admin operation",
					zap.String("user_id", claims.Subject),
					zap.String("path", r.URL.Path))
				writeError(w, fmt.Errorf("%w: admin role required", store.ErrForbidden))
				return
			}

			next.ServeHTTP(w, r.WithContext(models.WithPrincipal(r.Context(), principal)))
		})
	}
}
