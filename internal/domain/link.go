package domain

// LinkOutcome - результат привязки Telegram аккаунта
type LinkOutcome int

const (
	// OutcomeMalformed - не исход, а подсказка: аргументы /start не распознаны
	OutcomeMalformed LinkOutcome = iota
	OutcomeLinked
	OutcomeAlreadyLinkedElsewhere
	OutcomeUserNotFound
	OutcomeAuthMissing
	OutcomeTransportError
)

// DoubleLinkMessage - сообщение партнерского API, когда пользователь уже привязан к другому Telegram
const DoubleLinkMessage = "busy user data: double tg"

const (
	MessageGuidance = "Hello!\nPlease access the bot only via the link provided in the app/website instructions.\n" +
		"To link your account, use the link with parameters or the command /start [phone]_[config]."
	MessageLinked = "Your Telegram account has been successfully linked! No further action is required, " +
		"codes will be sent automatically. Now return to the app/website and press the 'Send code' button."
	MessageAlreadyLinked = "This account is already linked to another Telegram account. " +
		"You will not be able to receive authorization codes in this account."
	MessageUserNotFound = "User not found. Please try again later."
	MessageLinkError    = "Error linking Telegram. Please try again later."
)

func (o LinkOutcome) String() string {
	switch o {
	case OutcomeMalformed:
		return "malformed"
	case OutcomeLinked:
		return "linked"
	case OutcomeAlreadyLinkedElsewhere:
		return "already_linked_elsewhere"
	case OutcomeUserNotFound:
		return "user_not_found"
	case OutcomeAuthMissing:
		return "auth_missing"
	case OutcomeTransportError:
		return "transport_error"
	}
	return "unknown"
}

// Message возвращает фиксированный текст ответа пользователю.
// Для любого исхода текст непустой.
func (o LinkOutcome) Message() string {
	switch o {
	case OutcomeLinked:
		return MessageLinked
	case OutcomeAlreadyLinkedElsewhere:
		return MessageAlreadyLinked
	case OutcomeUserNotFound:
		return MessageUserNotFound
	case OutcomeMalformed:
		return MessageGuidance
	default:
		return MessageLinkError
	}
}

// LinkRequest - разобранное событие /start
type LinkRequest struct {
	Phone          string
	TenantID       string
	PlatformUserID string
}

// LinkResult - исход и текст ответа
type LinkResult struct {
	Outcome LinkOutcome
	Message string
	UserID  string // ID пользователя в партнерской системе, если найден
}
