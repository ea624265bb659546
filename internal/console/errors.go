package console

import "errors"

// Rejections returned before any orchestration call is made.
var (
	ErrEmptyInput           = errors.New("console: message is empty")
	ErrMCQPending           = errors.New("console: answer the pending question first")
	ErrConversationComplete = errors.New("console: conversation is complete, start a new session")
	ErrSlotRequired         = errors.New("console: slot id required")
	ErrPostContextRequired  = errors.New("console: slot id and post consultation text required")
	ErrInvalidOption        = errors.New("console: select one of the offered options")
	ErrNoPendingMCQ         = errors.New("console: no pending question")
	ErrNoURLs               = errors.New("console: at least one URL required")
	ErrUnresolvedReference  = errors.New("console: s3 references need S3 access configured")
)

var rejections = []error{
	ErrEmptyInput, ErrMCQPending, ErrConversationComplete, ErrSlotRequired,
	ErrPostContextRequired, ErrInvalidOption, ErrNoPendingMCQ, ErrNoURLs,
	ErrUnresolvedReference,
}

// IsRejection reports whether err is one of the input rejections above.
func IsRejection(err error) bool {
	for _, target := range rejections {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
