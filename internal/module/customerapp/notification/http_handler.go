package notification

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/tsel-ticketmaster/tm-registration/internal/pkg/middleware"
	"github.com/tsel-ticketmaster/tm-registration/pkg/errors"
	publicMiddleware "github.com/tsel-ticketmaster/tm-registration/pkg/middleware"
	"github.com/tsel-ticketmaster/tm-registration/pkg/response"
	"github.com/tsel-ticketmaster/tm-registration/pkg/status"
)

type HTTPHandler struct {
	Validate            *validator.Validate
	NotificationUseCase NotificationUseCase
}

func InitHTTPHandler(router *mux.Router, customerSession *middleware.CustomerSession, validate *validator.Validate, notificationUseCase NotificationUseCase) {
	handler := &HTTPHandler{
		Validate:            validate,
		NotificationUseCase: notificationUseCase,
	}

	router.HandleFunc("/tm-registration/v1/customerapp/notifications", publicMiddleware.SetRouteChain(handler.GetManyNotification, customerSession.Verify)).Methods(http.MethodGet)
	router.HandleFunc("/tm-registration/v1/customerapp/notifications/read-all", publicMiddleware.SetRouteChain(handler.MarkAllRead, customerSession.Verify)).Methods(http.MethodPost)
	router.HandleFunc("/tm-registration/v1/customerapp/notifications/{id}/read", publicMiddleware.SetRouteChain(handler.MarkRead, customerSession.Verify)).Methods(http.MethodPost)
	router.HandleFunc("/tm-registration/v1/customerapp/notifications/{id}", publicMiddleware.SetRouteChain(handler.RemoveNotification, customerSession.Verify)).Methods(http.MethodDelete)
}

func (handler HTTPHandler) validate(ctx context.Context, payload interface{}) error {
	err := handler.Validate.StructCtx(ctx, payload)
	if err == nil {
		return nil
	}

	errorFields := err.(validator.ValidationErrors)

	errMessages := make([]string, len(errorFields))

	for k, errorField := range errorFields {
		errMessages[k] = fmt.Sprintf("invalid '%s' with value '%v'", errorField.Field(), errorField.Value())
	}

	return fmt.Errorf("%s", strings.Join(errMessages, ", "))
}

func (handler HTTPHandler) GetManyNotification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	qs := r.URL.Query()

	req := GetManyNotificationRequest{}
	req.Page, _ = strconv.ParseInt(qs.Get("page"), 10, 64)
	req.Size, _ = strconv.ParseInt(qs.Get("size"), 10, 64)
	req.UnreadOnly, _ = strconv.ParseBool(qs.Get("unread"))

	if err := handler.validate(ctx, req); err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: err.Error(),
		})

		return
	}

	resp, err := handler.NotificationUseCase.GetManyNotification(ctx, req)
	if err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}

	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: "list of notifications",
		Data:    resp,
		Meta:    nil,
	})
}

func (handler HTTPHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ID := mux.Vars(r)["id"]

	resp, err := handler.NotificationUseCase.MarkRead(ctx, ID)
	if err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}

	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: "notification has been marked as read",
		Data:    resp,
		Meta:    nil,
	})
}

func (handler HTTPHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := handler.NotificationUseCase.MarkAllRead(ctx); err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}

	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: "all notifications have been marked as read",
		Data:    nil,
		Meta:    nil,
	})
}

func (handler HTTPHandler) RemoveNotification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ID := mux.Vars(r)["id"]

	if err := handler.NotificationUseCase.RemoveNotification(ctx, ID); err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}

	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: "notification has been removed",
		Data:    nil,
		Meta:    nil,
	})
}
