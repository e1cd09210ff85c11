package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/tableside/tableside-backend/api/responses"
	pkgerrors "github.com/tableside/tableside-backend/pkg/errors"
	"github.com/tableside/tableside-backend/pkg/logger"
	"github.com/tableside/tableside-backend/pkg/types"
)

const (
	headerUserID     = "X-User-Id"
	headerGuestToken = "X-Guest-Token"
)

// Owner resolves the caller's identity from the X-User-Id or X-Guest-Token
// header into an owner ref on the request context. Anonymous callers get a
// fresh guest token, echoed back so the client can hold on to its cart.
// Identity is otherwise an upstream concern: the value is treated as opaque.
func Owner(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawUser := strings.TrimSpace(r.Header.Get(headerUserID))
			rawGuest := strings.TrimSpace(r.Header.Get(headerGuestToken))

			if rawUser != "" && rawGuest != "" {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "provide either a user id or a guest token, not both"))
				return
			}

			var owner types.OwnerRef
			switch {
			case rawUser != "":
				userID, err := uuid.Parse(rawUser)
				if err != nil {
					responses.WriteError(r.Context(), logg, w,
						pkgerrors.New(pkgerrors.CodeValidation, "user id must be a UUID"))
					return
				}
				owner = types.UserOwner(userID)
			case rawGuest != "":
				owner = types.GuestOwner(rawGuest)
			default:
				token := uuid.NewString()
				owner = types.GuestOwner(token)
				w.Header().Set(headerGuestToken, token)
			}

			ctx := WithOwner(r.Context(), owner)
			if logg != nil {
				ctx = logg.WithOwner(ctx, owner.Key())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
