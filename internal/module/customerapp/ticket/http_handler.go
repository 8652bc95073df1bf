package ticket

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/tsel-ticketmaster/tm-registration/internal/pkg/middleware"
	"github.com/tsel-ticketmaster/tm-registration/pkg/errors"
	publicMiddleware "github.com/tsel-ticketmaster/tm-registration/pkg/middleware"
	"github.com/tsel-ticketmaster/tm-registration/pkg/response"
	"github.com/tsel-ticketmaster/tm-registration/pkg/status"
)

type HTTPHandler struct {
	Validate      *validator.Validate
	TicketUseCase TicketUseCase
}

func InitHTTPHandler(router *mux.Router, customerSession *middleware.CustomerSession, validate *validator.Validate, ticketUseCase TicketUseCase) {
	handler := &HTTPHandler{
		Validate:      validate,
		TicketUseCase: ticketUseCase,
	}

	router.HandleFunc("/tm-registration/v1/customerapp/registrations/{id}/ticket", publicMiddleware.SetRouteChain(handler.GetTicket, customerSession.Verify)).Methods(http.MethodGet)
}

func (handler HTTPHandler) GetTicket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	registrationID := mux.Vars(r)["id"]

	resp, err := handler.TicketUseCase.GetTicket(ctx, registrationID)
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
		Message: "ticket detail",
		Data:    resp,
		Meta:    nil,
	})
}
