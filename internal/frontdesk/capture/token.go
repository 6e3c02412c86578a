// Package capture turns raw device input into scan tokens.
//
// Two producers live here: the keystroke disambiguator, which frames the
// character stream a keyboard-emulation scanner types, and the optical
// session, which drives a camera decoder. Both emit Token values and share
// nothing else.
package capture

import "github.com/google/uuid"

type Source string

const (
	SourceKeyboard Source = "keyboard"
	SourceCamera   Source = "camera"
)

// Token is one complete scan from a capture source.
type Token struct {
	Text   string
	Source Source
	ScanID string
}

func newToken(text string, src Source) Token {
	return Token{Text: text, Source: src, ScanID: uuid.NewString()}
}
