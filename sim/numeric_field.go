package sim

import (
	"strconv"
	"strings"
)

// NumericField accumulates keyboard characters for a numeric text input, such
// as the processing-time box shown for a selected server. Only digits and a
// single decimal point are accepted.
type NumericField struct {
	text     strings.Builder
	hasPoint bool
	maxLen   int
}

// NewNumericField creates an empty field holding at most maxLen characters.
func NewNumericField(maxLen int) *NumericField {
	return &NumericField{maxLen: maxLen}
}

// Type appends r if it keeps the text a valid decimal. Returns false when the
// character was rejected.
func (f *NumericField) Type(r rune) bool {
	if f.maxLen > 0 && f.text.Len() >= f.maxLen {
		return false
	}
	switch {
	case r >= '0' && r <= '9':
	case r == '.' && !f.hasPoint:
		f.hasPoint = true
	default:
		return false
	}
	f.text.WriteRune(r)
	return true
}

// Backspace removes the last character.
func (f *NumericField) Backspace() {
	s := f.text.String()
	if s == "" {
		return
	}
	if s[len(s)-1] == '.' {
		f.hasPoint = false
	}
	f.text.Reset()
	f.text.WriteString(s[:len(s)-1])
}

// Clear empties the field.
func (f *NumericField) Clear() {
	f.text.Reset()
	f.hasPoint = false
}

// Text returns the raw contents.
func (f *NumericField) Text() string { return f.text.String() }

// Value parses the contents. ok is false for empty or non-positive input, which
// callers treat as "keep the previous value".
func (f *NumericField) Value() (float64, bool) {
	v, err := strconv.ParseFloat(f.text.String(), 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
