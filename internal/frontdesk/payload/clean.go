package payload

import "strings"

// Glyphs that have been observed in place of ':' after a payload went
// through a lossy transcoding step.
var colonGlyphs = []string{"¨", "΅", "：", "꞉", "˸", "։"}

// Field names as they come out when the payload was typed or re-encoded on
// a Greek keyboard layout. Longer names come first so "μεμβερΙδ" is not
// split by the shorter "Ιδ" rule.
var fieldNameVariants = []string{
	"μεμβερΙδ", "memberId",
	"μεμβεριδ", "memberid",
	"ΜΕΜΒΕΡΙΔ", "memberId",
	"μεμβερ_ιδ", "member_id",
	"τιμεσταμπ", "timestamp",
	"ΤΙΜΕΣΤΑΜΠ", "timestamp",
	"πηονε", "phone",
	"ΠΗΟΝΕ", "phone",
	"ναμε", "name",
	"ΝΑΜΕ", "name",
	"ιδ", "id",
	"Ιδ", "id",
	"ΙΔ", "ID",
}

var quoteGlyphs = []string{"“", "”", "„", "‟", "«", "»", "″", "‘", "’", "‚", "‛", "′", "'"}

// Byte sequences left behind by a UTF-8/Latin-1 round trip.
var garbage = []string{"\uFEFF", "ï»¿", "Â", "\x00", "\u200B"}

var cleaner = newCleaner()

func newCleaner() *strings.Replacer {
	var pairs []string
	for _, g := range garbage {
		pairs = append(pairs, g, "")
	}
	pairs = append(pairs, "\u00A0", " ")
	for _, g := range colonGlyphs {
		pairs = append(pairs, g, ":")
	}
	pairs = append(pairs, fieldNameVariants...)
	for _, q := range quoteGlyphs {
		pairs = append(pairs, q, `"`)
	}
	return strings.NewReplacer(pairs...)
}

// Clean undoes the known transcoding damage: it trims the token, restores
// colons, maps look-alike field names back to ASCII, collapses all quote
// styles to '"' and strips stray encoding bytes.
func Clean(raw string) string {
	return strings.TrimSpace(cleaner.Replace(strings.TrimSpace(raw)))
}
