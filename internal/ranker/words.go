package ranker

func isUpper(c byte) bool {
	return c >= 'A' && c <= 'Z'
}

func isWordStart(s string, i int) bool {
	if i == 0 {
		return true
	}
	prev, cur := s[i-1], s[i]
	if (prev == '_' || prev == '.') && cur != '_' {
		return true
	}
	return isUpper(cur) && !isUpper(prev)
}

// WordStarts returns the byte offsets in s that begin a word.
func WordStarts(s string) []int {
	var starts []int
	for i := 0; i < len(s); i++ {
		if isWordStart(s, i) {
			starts = append(starts, i)
		}
	}
	return starts
}

// WordStartLetters returns the lowercased letters found at each word start,
// e.g. "rwh" for render_widget_host.
func WordStartLetters(s string) string {
	starts := WordStarts(s)
	letters := make([]byte, len(starts))
	for i, pos := range starts {
		letters[i] = lowerByte(s[pos])
	}
	return string(letters)
}

func wordStartMask(s string) []bool {
	mask := make([]bool, len(s))
	for i := range mask {
		mask[i] = isWordStart(s, i)
	}
	return mask
}

func lowerByte(c byte) byte {
	if isUpper(c) {
		return c + ('a' - 'A')
	}
	return c
}

// Lower folds ASCII uppercase letters to lowercase and leaves every other
// byte alone, so byte offsets in the result line up with the input.
func Lower(s string) string {
	for i := 0; i < len(s); i++ {
		if isUpper(s[i]) {
			b := []byte(s)
			for j := i; j < len(b); j++ {
				b[j] = lowerByte(b[j])
			}
			return string(b)
		}
	}
	return s
}
