package course

import (
	"strings"
	"unicode"
)

// Chunker splits course documents into sentence-bounded chunks with a fixed
// character budget and a fixed overlap budget. Sentences are never split:
// a chunk may exceed MaxChars only when a single sentence does.
type Chunker struct {
	maxChars int
	overlap  int
}

// NewChunker creates a Chunker. maxChars is the chunk character budget;
// overlap is the character budget for repeated trailing sentences between
// consecutive chunks. overlap must be smaller than maxChars (enforced by
// config validation).
func NewChunker(maxChars, overlap int) *Chunker {
	return &Chunker{maxChars: maxChars, overlap: overlap}
}

// Chunk splits doc into an ordered sequence of chunks. The preamble (if any)
// is chunked without a lesson number; each lesson is chunked independently,
// so overlap never crosses a lesson boundary. An empty or whitespace-only
// document yields zero chunks.
func (c *Chunker) Chunk(doc *Document) []Chunk {
	var chunks []Chunk
	index := 0

	emit := func(text string, lesson *Lesson) {
		ch := Chunk{CourseTitle: doc.Title, Index: index, Text: text}
		if lesson != nil {
			n := lesson.Number
			ch.LessonNumber = &n
			ch.LessonLink = lesson.Link
		}
		chunks = append(chunks, ch)
		index++
	}

	for _, text := range c.split(doc.Preamble) {
		emit(text, nil)
	}
	for i := range doc.Lessons {
		lesson := &doc.Lessons[i]
		for _, text := range c.split(lesson.Content) {
			emit(text, lesson)
		}
	}

	return chunks
}

// split groups the sentences of text into chunks within the character
// budget, repeating trailing sentences of each chunk (up to the overlap
// budget) at the start of the next.
func (c *Chunker) split(text string) []string {
	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var out []string
	i := 0
	for i < len(sentences) {
		// Greedily take sentences while the joined length stays within budget.
		// The first sentence is always taken, so an oversized sentence becomes
		// a chunk of its own rather than being cut.
		length := 0
		j := i
		for j < len(sentences) {
			add := len(sentences[j])
			if length > 0 {
				add++ // joining space
			}
			if length+add > c.maxChars && j > i {
				break
			}
			length += add
			j++
		}
		out = append(out, strings.Join(sentences[i:j], " "))

		if j >= len(sentences) {
			break
		}

		// Walk back from the end of this chunk, collecting whole trailing
		// sentences whose combined length fits the overlap budget.
		k := j
		overlapLen := 0
		for k > i {
			add := len(sentences[k-1])
			if overlapLen > 0 {
				add++
			}
			if overlapLen+add > c.overlap {
				break
			}
			overlapLen += add
			k--
		}
		if k <= i {
			// Entire chunk fits inside the overlap budget; force progress.
			k = i + 1
		}
		i = k
	}

	return out
}

// SplitSentences splits text into sentences on terminal punctuation followed
// by whitespace. A period does not end a sentence when it terminates an
// abbreviation such as "Dr." or "e.g.", and decimal numbers are never split
// because the digits carry no trailing whitespace after the point.
func SplitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	runes := []rune(text)
	var sentences []string
	start := 0

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 >= len(runes) || !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if r == '.' && isAbbreviation(runes, i) {
			continue
		}

		s := strings.TrimSpace(string(runes[start : i+1]))
		if s != "" {
			sentences = append(sentences, s)
		}
		start = i + 1
	}

	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

// isAbbreviation reports whether the period at runes[i] appears to close an
// abbreviation rather than a sentence: either the dotted form "w.w." (e.g.,
// i.e., U.S.) or a capitalized short form like "Dr." or "Mr.".
func isAbbreviation(runes []rune, i int) bool {
	// "e.g." / "U.S.": letter, dot, letter, dot.
	if i >= 3 &&
		unicode.IsLetter(runes[i-1]) && runes[i-2] == '.' && unicode.IsLetter(runes[i-3]) {
		return true
	}
	// "Dr." / "Mr.": uppercase letter, lowercase letter, dot.
	if i >= 2 && unicode.IsUpper(runes[i-2]) && unicode.IsLower(runes[i-1]) {
		// Only treat as abbreviation when the two letters form the whole
		// word, otherwise ordinary words ending in "...Xy." would match.
		if i == 2 || !unicode.IsLetter(runes[i-3]) {
			return true
		}
	}
	return false
}
