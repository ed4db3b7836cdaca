package domain

import "strings"

// DefaultLanguage is assigned to rooms created without a snapshot.
const DefaultLanguage = "python"

// supportedLanguages is the fixed set of editor languages, in declaration
// order. "typescript" shares the javascript suggestion table but is a
// distinct selectable language.
var supportedLanguages = []string{"python", "javascript", "typescript", "java", "cpp"}

// languageAliases maps accepted alternate spellings onto canonical names.
var languageAliases = map[string]string{
	"c++": "cpp",
}

// NormalizeLanguage lowercases and canonicalizes a language name. The second
// return value reports whether the language is in the supported set.
func NormalizeLanguage(language string) (string, bool) {
	name := strings.ToLower(strings.TrimSpace(language))
	if alias, ok := languageAliases[name]; ok {
		name = alias
	}
	for _, supported := range supportedLanguages {
		if name == supported {
			return name, true
		}
	}
	return name, false
}

// SupportedLanguages returns a copy of the supported-language set.
func SupportedLanguages() []string {
	out := make([]string, len(supportedLanguages))
	copy(out, supportedLanguages)
	return out
}
