package notification

type GetManyNotificationRequest struct {
	Page       int64 `validate:"required,min=1"`
	Size       int64 `validate:"required,min=1,max=100"`
	UnreadOnly bool
}
