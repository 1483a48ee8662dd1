package language

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Auto requests automatic language detection by the recognition engine
const Auto = "auto"

// supported lists the language codes the recognition model accepts,
// in the order they are presented to users
var supported = []string{"zh", "en", "ja", "ko", "es", "fr", "de", "it", "pt", "ru"}

// Supported returns the accepted language codes, excluding "auto"
func Supported() []string {
	out := make([]string, len(supported))
	copy(out, supported)
	return out
}

// IsSupported reports whether the code is a recognized language hint
func IsSupported(code string) bool {
	if code == Auto {
		return true
	}
	for _, c := range supported {
		if c == code {
			return true
		}
	}
	return false
}

// NormalizeHint canonicalizes a user-supplied language hint to one of
// the supported two-letter codes, or "auto" for empty/auto input.
// BCP 47 variants such as "en-US" or "zh-Hans" collapse to their base
// language.
func NormalizeHint(hint string) (string, error) {
	hint = strings.ToLower(strings.TrimSpace(hint))
	if hint == "" || hint == Auto {
		return Auto, nil
	}

	tag, err := language.Parse(hint)
	if err != nil {
		return "", fmt.Errorf("unrecognized language %q: %w", hint, err)
	}

	base, _ := tag.Base()
	code := base.String()
	if !IsSupported(code) {
		return "", fmt.Errorf("unsupported language %q (supported: %s)", hint, strings.Join(supported, ", "))
	}
	return code, nil
}

// DisplayName returns a human-readable English name for a language code
func DisplayName(code string) string {
	if code == Auto {
		return "Automatic detection"
	}

	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return code
}
