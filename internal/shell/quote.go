package shell

import "strings"

// Quote returns value unchanged when it is a plain shell word, otherwise
// wrapped in single quotes with embedded quotes escaped.
func Quote(value string) string {
	if value == "" {
		return "''"
	}
	if isPlainWord(value) {
		return value
	}
	return "'" + strings.ReplaceAll(value, "'", `'"'"'`) + "'"
}

func isPlainWord(value string) bool {
	for i := 0; i < len(value); i++ {
		c := value[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case strings.IndexByte("_-./:=,+@%", c) >= 0:
		default:
			return false
		}
	}
	return true
}
