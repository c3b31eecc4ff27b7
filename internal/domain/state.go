package domain

// State — статус выполнения activity.
//
// Жизненный цикл:
//
//	CREATED → SCHEDULED → SENT → COMPLETED
//	                   ↘ SENT_FAILED ─┘ (requeue → SCHEDULED)
//	              SENT → REPLY_FAILED → COMPLETED (retry-reply)
type State string

const (
	// StateCreated — activity создана, ещё не взята в работу.
	StateCreated State = "CREATED"

	// StateScheduled — activity взята на отправку (leased) одним из узлов.
	StateScheduled State = "SCHEDULED"

	// StateSent — запрос к target выполнен успешно, ответ сохранён,
	// доставка на reply URL ещё не подтверждена. Переходное состояние:
	// Send Worker всегда уходит из него в COMPLETED/REPLY_FAILED
	// в рамках одного тика, но крах между ними оставляет activity
	// в SENT на диске — это единственный разрешённый устойчивый случай.
	StateSent State = "SENT"

	// StateSentFailed — запрос к target не удался (transport error
	// или статус вне allowedResponseCodes). Requeue Worker переводит
	// такие activity обратно в SCHEDULED.
	StateSentFailed State = "SENT_FAILED"

	// StateReplyFailed — ответ доставлен, но отправка на reply URL
	// не удалась. Retry-Reply Worker повторяет попытку.
	StateReplyFailed State = "REPLY_FAILED"

	// StateCompleted — reply URL подтвердил получение ответа.
	// Финальное состояние до истечения retention period.
	StateCompleted State = "COMPLETED"
)

// IsValid проверяет, что значение — одно из шести допустимых состояний.
func (s State) IsValid() bool {
	switch s {
	case StateCreated, StateScheduled, StateSent, StateSentFailed, StateReplyFailed, StateCompleted:
		return true
	default:
		return false
	}
}

// LeasableStates — состояния, из которых Send Worker может взять activity в работу.
func LeasableStates() []State {
	return []State{StateCreated, StateScheduled}
}
