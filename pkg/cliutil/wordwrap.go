package cliutil

import (
	"strings"
)

// Wrap the string `s` to a maximum width `w`.  Pass `w` == 0 to do no wrapping.
//
// In order to have some room for slop to avoid things like a short word being on a line by itself,
// most lines are actually wrapped to `w - 5`.
func Wrap(w int, s string) string {
	return wrap(0, w, s)
}

// Wrap the string `s` to a maximum width `w` with leading indent `i`.  The first line is not
// indented (this is assumed to be done by caller).  Pass `w` == 0 to do no wrapping
//
// In order to have some room for slop to avoid things like a short word being on a line by itself,
// most lines are actually wrapped to `w - 5`.
func WrapIndent(i, w int, s string) string {
	return wrap(i, w, s)
}

func wrap(i, w int, s string) string {
	if w == 0 {
		return s
	}
	limit := w
	if w-5 > i {
		limit = w - 5
	}
	indent := strings.Repeat(" ", i)

	var ret strings.Builder
	for pi, paragraph := range strings.Split(strings.TrimRight(s, "\n"), "\n\n") {
		if pi > 0 {
			ret.WriteString("\n\n")
			ret.WriteString(indent)
		}
		// Hard newlines within a paragraph are re-wrapped; runs of spaces between words
		// (as after a sentence) are preserved.
		rest := strings.ReplaceAll(paragraph, "\n", " ")
		col := i
		for first := true; rest != ""; first = false {
			sepLen := 0
			for sepLen < len(rest) && rest[sepLen] == ' ' {
				sepLen++
			}
			sep := rest[:sepLen]
			rest = rest[sepLen:]

			wordLen := 0
			for wordLen < len(rest) && rest[wordLen] != ' ' {
				wordLen++
			}
			word := rest[:wordLen]
			rest = rest[wordLen:]
			if word == "" {
				break
			}

			switch {
			case first:
				ret.WriteString(word)
				col = i + len(word)
			case col+len(sep)+len(word) < limit:
				ret.WriteString(sep)
				ret.WriteString(word)
				col += len(sep) + len(word)
			default:
				ret.WriteString("\n")
				ret.WriteString(indent)
				ret.WriteString(word)
				col = i + len(word)
			}
		}
	}
	return ret.String()
}
