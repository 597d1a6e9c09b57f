package quotes

import "github.com/lmoraes-dev/exportdesk-backend/pkg/enums"

// transitions is the full lifecycle graph. Draft quotes must be sent before
// a buyer can act on them; sent quotes settle into exactly one terminal
// state.
var transitions = map[enums.QuoteStatus][]enums.QuoteStatus{
	enums.QuoteStatusDraft: {enums.QuoteStatusSent},
	enums.QuoteStatusSent: {
		enums.QuoteStatusApproved,
		enums.QuoteStatusRejected,
		enums.QuoteStatusExpired,
	},
}

// CanTransition reports whether the lifecycle allows moving from one status
// to another.
func CanTransition(from, to enums.QuoteStatus) bool {
	for _, candidate := range transitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// deletable statuses are the ones with no commercial commitment attached.
func deletable(status enums.QuoteStatus) bool {
	return status == enums.QuoteStatusDraft || status == enums.QuoteStatusRejected
}
