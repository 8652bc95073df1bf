package ticket

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	qrcode "github.com/skip2/go-qrcode"
	"github.com/tsel-ticketmaster/tm-registration/internal/pkg/session"
	"github.com/tsel-ticketmaster/tm-registration/pkg/errors"
	"github.com/tsel-ticketmaster/tm-registration/pkg/status"
)

const qrImageSize = 256

type TicketUseCase interface {
	GetTicket(ctx context.Context, registrationID string) (TicketResponse, error)
}

type ticketUseCase struct {
	logger           *logrus.Logger
	timeout          time.Duration
	ticketRepository TicketRepository
}

type TicketUseCaseProperty struct {
	Logger           *logrus.Logger
	Timeout          time.Duration
	TicketRepository TicketRepository
}

func NewTicketUseCase(props TicketUseCaseProperty) TicketUseCase {
	return &ticketUseCase{
		logger:           props.Logger,
		timeout:          props.Timeout,
		ticketRepository: props.TicketRepository,
	}
}

// GetTicket implements TicketUseCase. The QR image encodes the signed ticket
// credential so the venue scanner can redeem it offline.
func (u *ticketUseCase) GetTicket(ctx context.Context, registrationID string) (TicketResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return TicketResponse{}, err
	}

	t, err := u.ticketRepository.FindByRegistrationIDAndCustomerID(ctx, registrationID, acc.ID)
	if err != nil {
		return TicketResponse{}, err
	}

	if t.Status != StatusApproved && t.Status != StatusAttended {
		return TicketResponse{}, errors.New(http.StatusConflict, status.INVALID_STATE, fmt.Sprintf("ticket is not redeemable from registration state '%s'", t.Status))
	}

	qrPNG, err := qrcode.Encode(t.TicketToken, qrcode.Medium, qrImageSize)
	if err != nil {
		u.logger.WithContext(ctx).WithError(err).Error()
		return TicketResponse{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while generating ticket qr code")
	}

	resp := TicketResponse{}
	resp.PopulateFromEntity(t, qrPNG)

	return resp, nil
}
