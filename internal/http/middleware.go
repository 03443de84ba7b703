package http

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// MockAuthMiddleware simulates JWT authentication (replace with real JWT
// validation). The caller identifies as a customer via the X-User-ID header.
func MockAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// In production: validate JWT token from Authorization header and
		// extract user_id from token claims.
		userID := r.Header.Get("X-User-ID")
		if userID == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), "user_id", userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// VendorAuthMiddleware simulates vendor authentication via the X-Vendor-ID
// header. Vendor identity gates order status transitions.
func VendorAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		vendorID := r.Header.Get("X-Vendor-ID")
		if vendorID == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), "vendor_id", vendorID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDMiddleware adds a unique request ID to each request.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = fmt.Sprintf("req-%d", time.Now().UnixNano())
		}

		ctx := context.WithValue(r.Context(), "request_id", requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getUserIDFromContext(ctx context.Context) string {
	if userID, ok := ctx.Value("user_id").(string); ok {
		return userID
	}
	return ""
}

func getVendorIDFromContext(ctx context.Context) string {
	if vendorID, ok := ctx.Value("vendor_id").(string); ok {
		return vendorID
	}
	return ""
}

func getRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value("request_id").(string); ok {
		return requestID
	}
	return ""
}
