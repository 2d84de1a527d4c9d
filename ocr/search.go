package ocr

// FindString returns a cursor on the first position, in reading order, where
// needle matches the character stream of r. Every position is tried, including
// the last one. Matching ignores line and block boundaries: the needle is
// compared against consecutive characters only, so a phrase wrapped over two
// lines still matches. An empty needle matches the first character.
//
// The scan is a plain O(N·M) walk; results are single frames of OCR output.
func FindString(needle string, r *Result) (Cursor, bool) {
	c, err := NewCursor(r)
	if err != nil {
		return Cursor{}, false
	}
	pattern := []rune(needle)
	for {
		if matchRunes(pattern, c) {
			return c, true
		}
		if _, err := c.Advance(); err != nil {
			return Cursor{}, false
		}
	}
}

// MatchAt reports whether needle matches the characters starting at c. The
// caller's cursor is not moved. Running out of characters before the needle
// is exhausted is a mismatch.
func MatchAt(needle string, c Cursor) bool {
	return matchRunes([]rune(needle), c)
}

func matchRunes(pattern []rune, c Cursor) bool {
	if !c.Valid() {
		return false
	}
	for i, want := range pattern {
		if !CharMatches(want, c.Current()) {
			return false
		}
		if i == len(pattern)-1 {
			break
		}
		if !c.HasNext() {
			return false
		}
		if _, err := c.Advance(); err != nil {
			return false
		}
	}
	return true
}

// CharMatches reports whether expected equals the primary recognized value of
// actual or any of its alternatives.
func CharMatches(expected rune, actual CharWithVariants) bool {
	if actual.Char.Value == expected {
		return true
	}
	for _, alt := range actual.Alternatives {
		if alt.Value == expected {
			return true
		}
	}
	return false
}
