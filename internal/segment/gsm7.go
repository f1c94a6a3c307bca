package segment

import "strings"

// Filter rewrites text into a channel-safe alphabet. Filters run before
// segmentation so length accounting sees the characters that will
// actually go over the wire.
type Filter func(string) string

// gsm7Basic is the GSM 03.38 basic character set, without the extension
// table. Anything outside it forces a carrier re-encode, so SMS text is
// held to this set.
const gsm7Basic = "@£$¥\n\r !\"#¤%&'()*+,-./0123456789:;<=>?" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// IsGSM7 reports whether every rune of text is in the GSM-7 basic set.
func IsGSM7(text string) bool {
	for _, r := range text {
		if !strings.ContainsRune(gsm7Basic, r) {
			return false
		}
	}
	return true
}

// GSM7 replaces every rune outside the GSM-7 basic set with '?'.
// It is a Filter.
func GSM7(text string) string {
	if IsGSM7(text) {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if strings.ContainsRune(gsm7Basic, r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('?')
		}
	}
	return b.String()
}
