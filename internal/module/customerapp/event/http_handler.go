package event

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
	Validate     *validator.Validate
	EventUseCase EventUseCase
}

func InitHTTPHandler(router *mux.Router, customerSession *middleware.CustomerSession, validate *validator.Validate, eventUseCase EventUseCase) {
	handler := &HTTPHandler{
		Validate:     validate,
		EventUseCase: eventUseCase,
	}

	router.HandleFunc("/tm-registration/v1/customerapp/events", publicMiddleware.SetRouteChain(handler.GetManyEvent, customerSession.Verify)).Methods(http.MethodGet)
	router.HandleFunc("/tm-registration/v1/customerapp/events/{id}", publicMiddleware.SetRouteChain(handler.GetEvent, customerSession.Verify)).Methods(http.MethodGet)
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

func (handler HTTPHandler) GetManyEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	qs := r.URL.Query()

	req := GetManyEventRequest{}
	req.Page, _ = strconv.ParseInt(qs.Get("page"), 10, 64)
	req.Size, _ = strconv.ParseInt(qs.Get("size"), 10, 64)

	if err := handler.validate(ctx, req); err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: err.Error(),
		})

		return
	}

	resp, err := handler.EventUseCase.GetManyEvent(ctx, req)
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
		Message: "list of events",
		Data:    resp,
		Meta:    nil,
	})
}

func (handler HTTPHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ID := mux.Vars(r)["id"]

	resp, err := handler.EventUseCase.GetEvent(ctx, ID)
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
		Message: "event detail",
		Data:    resp,
		Meta:    nil,
	})
}
