package tools

import (
	"fmt"
	"strings"
)

// Kwarg is one keyword argument destined to become a command-line flag.
type Kwarg struct {
	Key   string
	Value any
}

// KW is shorthand for building a Kwarg.
func KW(key string, value any) Kwarg {
	return Kwarg{Key: key, Value: value}
}

// Invocation is the caller-facing description of one tool call.
type Invocation struct {
	// Args are positional tokens placed right after the tool name.
	Args []string
	// Kwargs become flags, in order.
	Kwargs []Kwarg
}

// Flag is a normalized command-line flag. Bare flags carry no value.
type Flag struct {
	Name  string // with its leading dashes
	Value string
	Bare  bool
}

// Tokens renders the flag as shell words.
func (f Flag) Tokens() []string {
	if f.Bare {
		return []string{f.Name}
	}
	return []string{f.Name, f.Value}
}

// Normalize turns keyword arguments into an ordered flag list.
//
//   - a nil value drops the argument
//   - a single-character key becomes "-x value"
//   - a multi-character key set to true becomes the bare "--flag"
//   - any other multi-character key becomes "--flag value"
//
// A repeated key replaces the earlier value at its original position.
func Normalize(kwargs []Kwarg) []Flag {
	flags := make([]Flag, 0, len(kwargs))
	index := make(map[string]int, len(kwargs))

	for _, kw := range kwargs {
		key := strings.TrimSpace(kw.Key)
		if key == "" || kw.Value == nil {
			continue
		}

		var f Flag
		switch {
		case len(key) == 1:
			f = Flag{Name: "-" + key, Value: formatValue(kw.Value)}
		case kw.Value == true:
			f = Flag{Name: "--" + key, Bare: true}
		default:
			f = Flag{Name: "--" + key, Value: formatValue(kw.Value)}
		}

		if i, ok := index[f.Name]; ok {
			flags[i] = f
			continue
		}
		index[f.Name] = len(flags)
		flags = append(flags, f)
	}

	return flags
}

// HasFlag reports whether any of keys is present with a non-nil value.
func HasFlag(kwargs []Kwarg, keys ...string) bool {
	for _, kw := range kwargs {
		if kw.Value == nil {
			continue
		}
		for _, k := range keys {
			if kw.Key == k {
				return true
			}
		}
	}
	return false
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
