package registration

import (
	"context"
	"encoding/json"
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
	RegistrationUseCase RegistrationUseCase
}

func InitHTTPHandler(router *mux.Router, customerSession *middleware.CustomerSession, validate *validator.Validate, registrationUseCase RegistrationUseCase) {
	handler := &HTTPHandler{
		Validate:            validate,
		RegistrationUseCase: registrationUseCase,
	}

	router.HandleFunc("/tm-registration/v1/customerapp/registrations", publicMiddleware.SetRouteChain(handler.SubmitRegistration, customerSession.Verify)).Methods(http.MethodPost)
	router.HandleFunc("/tm-registration/v1/customerapp/registrations", publicMiddleware.SetRouteChain(handler.GetManyRegistration, customerSession.Verify)).Methods(http.MethodGet)
	router.HandleFunc("/tm-registration/v1/customerapp/registrations/{id}/cancel", publicMiddleware.SetRouteChain(handler.CancelRegistration, customerSession.Verify)).Methods(http.MethodPost)
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

func (handler HTTPHandler) SubmitRegistration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := SubmitRegistrationRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.JSON(w, http.StatusUnprocessableEntity, response.RESTEnvelope{
			Status:  status.UNPROCESSABLE_ENTITY,
			Message: err.Error(),
		})

		return
	}

	if err := handler.validate(ctx, req); err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: err.Error(),
		})

		return
	}

	resp, err := handler.RegistrationUseCase.SubmitRegistration(ctx, req)
	if err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}

	response.JSON(w, http.StatusCreated, response.RESTEnvelope{
		Status:  status.CREATED,
		Message: "registration has been successfully submitted",
		Data:    resp,
		Meta:    nil,
	})
}

func (handler HTTPHandler) GetManyRegistration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	qs := r.URL.Query()

	req := GetManyRegistrationRequest{}
	req.Page, _ = strconv.ParseInt(qs.Get("page"), 10, 64)
	req.Size, _ = strconv.ParseInt(qs.Get("size"), 10, 64)

	if err := handler.validate(ctx, req); err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: err.Error(),
		})

		return
	}

	resp, err := handler.RegistrationUseCase.GetManyRegistration(ctx, req)
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
		Message: "list of registrations",
		Data:    resp,
		Meta:    nil,
	})
}

func (handler HTTPHandler) CancelRegistration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ID := mux.Vars(r)["id"]

	resp, err := handler.RegistrationUseCase.CancelRegistration(ctx, ID)
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
		Message: "registration has been successfully cancelled",
		Data:    resp,
		Meta:    nil,
	})
}
