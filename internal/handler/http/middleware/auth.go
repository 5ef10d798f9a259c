package middleware

import (
	"net/http"

	"github.com/go-chi/jwtauth/v5"

	"github.com/classboard/backoffice-go/internal/domain/actor"
	"github.com/classboard/backoffice-go/internal/handler/http/response"
)

// AuthRequired validates the verified token, resolves the caller into an
// actor.Actor and injects it into the request context. Capabilities are
// resolved here once; downstream business logic only ever sees the actor.
func AuthRequired(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, _, err := jwtauth.FromContext(r.Context())
			if err != nil {
				response.Unauthorized(w, err.Error())
				return
			}

			if token == nil {
				response.Unauthorized(w, "Invalid token")
				return
			}

			claims, err := token.AsMap(r.Context())
			if err != nil {
				response.Unauthorized(w, "Invalid token")
				return
			}

			tokenType, ok := claims["type"].(string)
			if !ok || tokenType != "access" {
				response.Unauthorized(w, "Invalid token")
				return
			}

			userID, ok := claims["user_id"].(string)
			if !ok || userID == "" {
				response.Unauthorized(w, "Invalid token")
				return
			}

			caller := actor.Actor{
				UserID:       userID,
				Capabilities: capabilitiesFromClaims(claims),
			}
			if employeeID, ok := claims["employee_id"].(string); ok {
				caller.EmployeeID = employeeID
			}

			ctx := actor.WithActor(r.Context(), caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(hfn)
	}
}

// RequireCapability gates a route group on one resolved capability.
func RequireCapability(c actor.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, err := actor.FromContext(r.Context())
			if err != nil {
				response.HandleError(w, err)
				return
			}

			if !caller.Can(c) {
				response.Forbidden(w, "Insufficient permissions: required '"+string(c)+"'")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// capabilitiesFromClaims decodes the capabilities claim, which arrives as
// []interface{} after JSON round-tripping.
func capabilitiesFromClaims(claims map[string]interface{}) []actor.Capability {
	raw, ok := claims["capabilities"].([]interface{})
	if !ok {
		return nil
	}

	capabilities := make([]actor.Capability, 0, len(raw))
	for _, entry := range raw {
		if s, ok := entry.(string); ok {
			capabilities = append(capabilities, actor.Capability(s))
		}
	}
	return capabilities
}
