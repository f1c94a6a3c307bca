package segment

import "strings"

// DefaultMaxChunkLength is the per-message character budget for
// conversational replies.
const DefaultMaxChunkLength = 150

// Chunk is one transport-sized piece of a reply.
type Chunk struct {
	Index     int
	Text      string
	CharCount int
}

// Split breaks text into chunks of at most maxLen characters, breaking
// at the most natural available point: paragraph breaks first, then
// sentence ends, then clause breaks, then single words. A word longer
// than maxLen is emitted alone as an oversized chunk rather than cut
// mid-word; that is the only case where a chunk may exceed maxLen.
// Joining the chunk texts back together reproduces the input up to
// whitespace normalization at the break points. Blank input yields no
// chunks. Split is pure: no state survives a call.
func Split(text string, maxLen int, filter Filter) []Chunk {
	if filter != nil {
		text = filter(text)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxChunkLength
	}

	pieces := packUnits(paragraphs(text), maxLen, func(p string) []string {
		return packSentences(p, maxLen)
	})

	chunks := make([]Chunk, len(pieces))
	for i, p := range pieces {
		chunks[i] = Chunk{Index: i, Text: p, CharCount: len(p)}
	}
	return chunks
}

func packSentences(text string, maxLen int) []string {
	return packUnits(splitAfter(text, ".?!"), maxLen, func(s string) []string {
		return packClauses(s, maxLen)
	})
}

func packClauses(text string, maxLen int) []string {
	return packUnits(splitAfter(text, ",;"), maxLen, func(c string) []string {
		return packWords(c, maxLen)
	})
}

func packWords(text string, maxLen int) []string {
	return packUnits(strings.Fields(text), maxLen, func(w string) []string {
		// An atomic token with no break opportunity: the one allowed
		// overflow. Emitted whole, never truncated.
		return []string{w}
	})
}

// packUnits greedily joins units with single spaces while the result
// stays within maxLen. A unit that alone exceeds maxLen is handed to
// the finer-grained fallback.
func packUnits(units []string, maxLen int, fallback func(string) []string) []string {
	var out []string
	cur := ""
	flush := func() {
		if cur != "" {
			out = append(out, cur)
			cur = ""
		}
	}

	for _, u := range units {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if len(u) > maxLen {
			flush()
			out = append(out, fallback(u)...)
			continue
		}
		joined := u
		if cur != "" {
			joined = cur + " " + u
		}
		if len(joined) > maxLen {
			flush()
			cur = u
		} else {
			cur = joined
		}
	}
	flush()
	return out
}

func paragraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitAfter cuts text right after any rune of punct that is followed
// by whitespace or ends the text, keeping the punctuation with the
// preceding unit.
func splitAfter(text, punct string) []string {
	var units []string
	start := 0
	for i := 0; i < len(text); i++ {
		if strings.IndexByte(punct, text[i]) < 0 {
			continue
		}
		if i+1 < len(text) && !isSpace(text[i+1]) {
			continue
		}
		if u := strings.TrimSpace(text[start : i+1]); u != "" {
			units = append(units, u)
		}
		start = i + 1
	}
	if start < len(text) {
		if u := strings.TrimSpace(text[start:]); u != "" {
			units = append(units, u)
		}
	}
	return units
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t' || b == '\r'
}
