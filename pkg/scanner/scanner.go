// Package scanner detects string and character literals in source text,
// ignoring anything that sits inside a line or block comment. It is the
// eligibility gate for the rewrite pipeline: files with no literal outside
// a comment are never sent to the oracle.
package scanner

// 🔤 SpanKind distinguishes the two literal forms the scanner tracks
type SpanKind int

const (
	KindString SpanKind = iota // "..." literal
	KindChar                   // '...' literal
)

// String returns a string representation of SpanKind
func (k SpanKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindChar:
		return "char"
	default:
		return "unknown"
	}
}

// 📐 Span is a half-open rune range [Start, End) covering one literal,
// quotes included. Spans are only produced for literals that were opened
// and properly closed outside of any comment.
type Span struct {
	Start int
	End   int
	Kind  SpanKind
}

// scanState is the automaton state while walking the source left to right.
type scanState int

const (
	stateCode scanState = iota
	stateLineComment
	stateBlockComment
	stateString
	stateChar
)

// 🔍 Scan walks src once and returns every string/character literal that
// opens and closes outside a comment. A string abandoned by a newline or
// by end of input yields no span; the scanner never fails, it only
// declines to give credit for malformed fragments.
func Scan(src string) []Span {
	var spans []Span

	runes := []rune(src)
	state := stateCode
	spanStart := 0

	for i := 0; i < len(runes); i++ {
		c := runes[i]

		switch state {
		case stateCode:
			switch {
			case c == '/' && i+1 < len(runes) && runes[i+1] == '/':
				state = stateLineComment
				i++ // consume both chars
			case c == '/' && i+1 < len(runes) && runes[i+1] == '*':
				state = stateBlockComment
				i++
			case c == '"':
				state = stateString
				spanStart = i
			case c == '\'':
				state = stateChar
				spanStart = i
			}

		case stateLineComment:
			if c == '\n' {
				state = stateCode
			}

		case stateBlockComment:
			if c == '*' && i+1 < len(runes) && runes[i+1] == '/' {
				state = stateCode
				i++
			}

		case stateString:
			switch {
			case c == '\\':
				// escape pair is atomic; a trailing lone backslash at
				// end of input is a no-op
				i++
			case c == '"':
				spans = append(spans, Span{Start: spanStart, End: i + 1, Kind: KindString})
				state = stateCode
			case c == '\n':
				// malformed literal, no credit
				state = stateCode
			}

		case stateChar:
			switch {
			case c == '\\':
				i++
			case c == '\'':
				spans = append(spans, Span{Start: spanStart, End: i + 1, Kind: KindChar})
				state = stateCode
			case c == '\n':
				state = stateCode
			}
		}
	}

	// anything still open at end of input is treated as closed with no
	// credit; the gate is best-effort, not a grammar validator
	return spans
}

// 🚪 HasLiteral reports whether src contains at least one string or
// character literal outside of comments. Files failing this gate are
// skipped without an oracle call.
func HasLiteral(src string) bool {
	return len(Scan(src)) > 0
}

// Count returns the number of literals outside comments.
func Count(src string) int {
	return len(Scan(src))
}
