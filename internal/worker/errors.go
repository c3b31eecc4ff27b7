package worker

import "errors"

// Таксономия ошибок воркера.
var (
	// ErrTransport — исходящий вызов не смог завершиться (DNS, connect,
	// timeout). Приводит к SENT_FAILED / REPLY_FAILED.
	ErrTransport = errors.New("transport error")

	// ErrStatus — исходящий вызов завершился статусом вне
	// allowedResponseCodes. Приводит к тем же переходам, что ErrTransport,
	// но дополнительно логируется со статусом и телом ответа.
	ErrStatus = errors.New("status not allowed")

	// ErrNoActivity — нет ни одной activity, доступной для лизинга на
	// этом тике. Не является ошибкой обработки — тик просто возвращается.
	ErrNoActivity = errors.New("no leasable activity")
)
