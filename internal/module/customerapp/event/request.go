package event

type GetManyEventRequest struct {
	Page int64 `json:"page" validate:"required,gte=1"`
	Size int64 `json:"size" validate:"required,gte=1,lte=100"`
}
