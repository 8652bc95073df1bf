package registration

type SubmitRegistrationRequest struct {
	EventID string `json:"event_id" validate:"required"`
}

type GetManyRegistrationRequest struct {
	Page int64 `validate:"required,min=1"`
	Size int64 `validate:"required,min=1,max=100"`
}
