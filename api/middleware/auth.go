package middleware

import (
	"net/http"
	"strings"

	"github.com/lmoraes-dev/exportdesk-backend/api/responses"
	pkgAuth "github.com/lmoraes-dev/exportdesk-backend/pkg/auth"
	"github.com/lmoraes-dev/exportdesk-backend/pkg/config"
	pkgerrors "github.com/lmoraes-dev/exportdesk-backend/pkg/errors"
	"github.com/lmoraes-dev/exportdesk-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the
// claims.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := WithUserID(r.Context(), claims.UserID.String())
			ctx = WithRole(ctx, string(claims.Role))
			if claims.BuyerProfileID != nil {
				ctx = WithBuyerID(ctx, claims.BuyerProfileID.String())
			}
			if claims.SalespersonProfileID != nil {
				ctx = WithSalespersonID(ctx, claims.SalespersonProfileID.String())
			}

			if logg != nil {
				fields := map[string]any{
					"user_id":    claims.UserID.String(),
					"actor_role": string(claims.Role),
				}
				if claims.BuyerProfileID != nil {
					fields["buyer_id"] = claims.BuyerProfileID.String()
				}
				if claims.SalespersonProfileID != nil {
					fields["salesperson_id"] = claims.SalespersonProfileID.String()
				}
				ctx = logg.WithFields(ctx, fields)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
