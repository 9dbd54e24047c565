package auth

import (
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/moop-bio/moop-engine/pkg/config"
)

// Middleware resolves the requester identity for every request and stores it
// in the context. Resolution order:
//
//  1. session cookie from a prior login,
//  2. Authorization: Bearer token,
//  3. client IP inside a configured auto-grant range (treated as admin),
//  4. anonymous by IP.
//
// Identity resolution never rejects a request; unauthorized access surfaces
// later as per-organism denial inside the access resolver.
func Middleware(cfg config.AuthConfig, sessions *SessionManager, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requester := resolveRequester(cfg, sessions, logger, r)
			next.ServeHTTP(w, r.WithContext(WithRequester(r.Context(), requester)))
		})
	}
}

func resolveRequester(cfg config.AuthConfig, sessions *SessionManager, logger *zap.Logger, r *http.Request) Requester {
	ip := clientIP(r)

	if sessions != nil {
		if username, admin, ok := sessions.Identity(r); ok {
			return Requester{Username: username, IP: ip, Admin: admin, Authenticated: true}
		}
	}

	if token := bearerToken(r); token != "" {
		claims, err := VerifyToken(cfg.JWTSecret, token)
		if err != nil {
			logger.Debug("rejected bearer token", zap.Error(err))
		} else {
			return Requester{Username: claims.Subject, IP: ip, Admin: claims.Admin, Authenticated: true}
		}
	}

	if parsed := net.ParseIP(ip); parsed != nil {
		for _, rng := range cfg.AutoGrantIPRanges {
			if rng.Contains(parsed) {
				return Requester{IP: ip, Admin: true}
			}
		}
	}

	return Requester{IP: ip}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
