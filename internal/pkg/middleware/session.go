package middleware

import (
	"net/http"
	"strings"

	"github.com/tsel-ticketmaster/tm-registration/internal/pkg/jwt"
	"github.com/tsel-ticketmaster/tm-registration/internal/pkg/session"
	"github.com/tsel-ticketmaster/tm-registration/pkg/errors"
	"github.com/tsel-ticketmaster/tm-registration/pkg/response"
	"github.com/tsel-ticketmaster/tm-registration/pkg/status"
)

// CustomerSession verifies a customer's bearer token and loads the account
// onto the request context.
type CustomerSession struct {
	jsonWebToken *jwt.JSONWebToken
	store        session.Store
}

func NewCustomerSessionMiddleware(jsonWebToken *jwt.JSONWebToken, store session.Store) *CustomerSession {
	return &CustomerSession{
		jsonWebToken: jsonWebToken,
		store:        store,
	}
}

func (m *CustomerSession) Verify(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acc, err := verifySession(r, m.jsonWebToken, m.store)
		if err != nil {
			ae := errors.Destruct(err)
			response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
				Status:  ae.Status,
				Message: ae.Message,
			})

			return
		}

		next(w, r.WithContext(session.ContextWithAccount(r.Context(), acc)))
	}
}

// AdminSession verifies an administrator's bearer token and enforces the
// admin role.
type AdminSession struct {
	jsonWebToken *jwt.JSONWebToken
	store        session.Store
}

func NewAdminSessionMiddleware(jsonWebToken *jwt.JSONWebToken, store session.Store) *AdminSession {
	return &AdminSession{
		jsonWebToken: jsonWebToken,
		store:        store,
	}
}

func (m *AdminSession) Verify(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acc, err := verifySession(r, m.jsonWebToken, m.store)
		if err != nil {
			ae := errors.Destruct(err)
			response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
				Status:  ae.Status,
				Message: ae.Message,
			})

			return
		}

		if acc.Role != session.RoleAdmin {
			response.JSON(w, http.StatusForbidden, response.RESTEnvelope{
				Status:  status.FORBIDDEN,
				Message: "administrator role is required",
			})

			return
		}

		next(w, r.WithContext(session.ContextWithAccount(r.Context(), acc)))
	}
}

func verifySession(r *http.Request, jsonWebToken *jwt.JSONWebToken, store session.Store) (session.Account, error) {
	token := bearerToken(r)
	if token == "" {
		return session.Account{}, errors.New(http.StatusUnauthorized, status.UNAUTHORIZED, "authorization token is required")
	}

	claims, err := jsonWebToken.Parse(token)
	if err != nil {
		return session.Account{}, errors.New(http.StatusUnauthorized, status.UNAUTHORIZED, "authorization token is invalid")
	}

	sessionID, _ := claims["sid"].(string)
	if sessionID == "" {
		return session.Account{}, errors.New(http.StatusUnauthorized, status.UNAUTHORIZED, "authorization token is invalid")
	}

	return store.Get(r.Context(), sessionID)
}

func bearerToken(r *http.Request) string {
	authorization := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(authorization, "Bearer "); ok {
		return token
	}

	// Websocket clients cannot set headers from the browser.
	return r.URL.Query().Get("token")
}
