package chat

// ConversationType is validated once at the system boundary; raw strings are
// never dispatched on past ParseConversationType.
type ConversationType string

const (
	TypeDirect ConversationType = "direct"
	TypeGroup  ConversationType = "group"
)

func ParseConversationType(s string) (ConversationType, error) {
	switch ConversationType(s) {
	case TypeDirect:
		return TypeDirect, nil
	case TypeGroup:
		return TypeGroup, nil
	default:
		return "", ErrUnknownConversationType
	}
}

func (t ConversationType) String() string {
	return string(t)
}
