package bot

import "strings"

// Intent classifies what the customer is trying to do this turn. It is
// a closed set so downstream logic can switch exhaustively instead of
// matching on free strings.
type Intent int

const (
	IntentUnknown Intent = iota
	IntentBrowse
	IntentPurchase
)

func (i Intent) String() string {
	switch i {
	case IntentBrowse:
		return "browse"
	case IntentPurchase:
		return "purchase"
	default:
		return "unknown"
	}
}

var purchaseHints = []string{
	"buy",
	"purchase",
	"order",
	"how much",
	"price",
	"cost",
	"i'll take",
	"ill take",
	"in stock",
}

var browseHints = []string{
	"recommend",
	"suggest",
	"looking for",
	"something like",
	"similar to",
	"what should i read",
	"any books",
	"anything good",
	"have you got",
	"do you have",
}

// DetectIntent applies substring heuristics to the customer text.
// Purchase hints take precedence over browsing ones.
func DetectIntent(text string) Intent {
	t := strings.ToLower(text)
	for _, h := range purchaseHints {
		if strings.Contains(t, h) {
			return IntentPurchase
		}
	}
	for _, h := range browseHints {
		if strings.Contains(t, h) {
			return IntentBrowse
		}
	}
	return IntentUnknown
}
