package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectIntent(t *testing.T) {
	cases := []struct {
		text string
		want Intent
	}{
		{"can you recommend something like The Hobbit?", IntentBrowse},
		{"do you have anything by Le Guin", IntentBrowse},
		{"what should I read next", IntentBrowse},
		{"I want to buy the second one", IntentPurchase},
		{"how much is Dune?", IntentPurchase},
		{"ill take it", IntentPurchase},
		{"is Mistborn in stock", IntentPurchase},
		{"hey marty", IntentUnknown},
		{"thanks!", IntentUnknown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DetectIntent(tc.text), "text: %q", tc.text)
	}
}

func TestDetectIntentPurchaseWinsOverBrowse(t *testing.T) {
	// contains both "recommend" and "buy"
	got := DetectIntent("you recommended Dune earlier, I want to buy it")
	assert.Equal(t, IntentPurchase, got)
}

func TestIntentString(t *testing.T) {
	assert.Equal(t, "browse", IntentBrowse.String())
	assert.Equal(t, "purchase", IntentPurchase.String())
	assert.Equal(t, "unknown", IntentUnknown.String())
}
