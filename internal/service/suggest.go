package service

import (
	"fmt"
	"sort"
	"strings"

	"collaborative-codepad/internal/domain"
)

// Suggestion is the result of one autocomplete request. Suggestion is empty
// when nothing matched; Alternatives lists every matching snippet ordered by
// match specificity.
type Suggestion struct {
	Suggestion   string   `json:"suggestion"`
	Alternatives []string `json:"allSuggestions"`
}

// snippet is one entry of a per-language completion table. Entries are
// matched against the fragment under the cursor and declaration order breaks
// specificity ties.
type snippet struct {
	key  string
	body string
}

var snippetTables = map[string][]snippet{
	"python": {
		{"def", "def function_name(param1, param2):\n    pass"},
		{"class", "class ClassName:\n    def __init__(self):\n        pass"},
		{"for", "for item in items:\n    print(item)"},
		{"if", "if condition:\n    pass"},
		{"while", "while condition:\n    pass"},
		{"try", "try:\n    pass\nexcept Exception:\n    pass"},
		{"print", "print()"},
		{"print", "print(f\"{variable}\")"},
		{"import", "import os"},
		{"import", "import sys"},
		{"from", "from module import function"},
	},
	"javascript": {
		{"function", "function name(params) {\n  return;\n}"},
		{"const", "const variable = "},
		{"const", "const array = []"},
		{"const", "const object = {}"},
		{"let", "let variable = "},
		{"for", "for (let i = 0; i < length; i++) {\n  \n}"},
		{"if", "if (condition) {\n  \n}"},
		{"console", "console.log()"},
		{"console", "console.error()"},
		{"console", "console.warn()"},
		{"async", "async function name(params) {\n  \n}"},
	},
	"java": {
		{"public", "public class ClassName {\n  \n}"},
		{"public", "public void methodName() {\n  \n}"},
		{"private", "private int variable;"},
		{"private", "private void methodName() {\n  \n}"},
		{"protected", "protected void methodName() {\n  \n}"},
		{"class", "class ClassName {\n  \n}"},
		{"interface", "interface InterfaceName {\n  \n}"},
		{"for", "for (int i = 0; i < length; i++) {\n  \n}"},
		{"System", "System.out.println()"},
		{"System", "System.out.print()"},
	},
	"cpp": {
		{"#include", "#include <iostream>"},
		{"#include", "#include <vector>"},
		{"#include", "#include <string>"},
		{"for", "for (int i = 0; i < n; i++) {\n  \n}"},
		{"cout", "cout << \"\" << endl;"},
		{"cout", "cout << variable << endl;"},
		{"std", "std::vector"},
		{"std", "std::string"},
		{"std", "std::cout"},
		{"using", "using namespace std;"},
		{"class", "class ClassName {\npublic:\n};"},
	},
}

func init() {
	// TypeScript shares the JavaScript table.
	snippetTables["typescript"] = snippetTables["javascript"]
}

// SuggestService generates deterministic autocomplete suggestions from
// partial code context. It is stateless: identical inputs always produce
// identical outputs.
type SuggestService struct{}

// NewSuggestService creates a SuggestService.
func NewSuggestService() *SuggestService {
	return &SuggestService{}
}

// Suggest derives a completion for the cursor position. The cursor's line is
// scanned backwards for the trailing identifier fragment, which is matched
// against the language's snippet table: an entry matches when its key and
// the fragment extend one another, and matches rank by longest shared prefix
// with declaration order as the tiebreak. No match is a successful result
// with an empty suggestion. Cost scales with the current line, not the whole
// document.
func (s *SuggestService) Suggest(code string, cursorOffset int, language string) (*Suggestion, error) {
	if cursorOffset < 0 || cursorOffset > len(code) {
		return nil, fmt.Errorf("%w: cursor position %d out of range [0, %d]", ErrValidation, cursorOffset, len(code))
	}
	normalized, supported := domain.NormalizeLanguage(language)
	if !supported {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, language)
	}

	fragment := fragmentAt(code, cursorOffset)
	table := snippetTables[normalized]

	type match struct {
		order  int
		common int
		body   string
	}
	var matches []match
	for i, entry := range table {
		common := commonPrefixLen(entry.key, fragment)
		if fragment == "" || (common != len(entry.key) && common != len(fragment)) {
			continue
		}
		matches = append(matches, match{order: i, common: common, body: entry.body})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].common != matches[j].common {
			return matches[i].common > matches[j].common
		}
		return matches[i].order < matches[j].order
	})

	result := &Suggestion{Alternatives: []string{}}
	for _, m := range matches {
		result.Alternatives = append(result.Alternatives, m.body)
	}
	if len(matches) > 0 {
		result.Suggestion = matches[0].body
	}
	return result, nil
}

// fragmentAt extracts the trailing identifier/keyword run of the line prefix
// ending at the cursor. Trailing spaces are trimmed first, so a completed
// keyword followed by a space ("def ") still yields its fragment.
func fragmentAt(code string, cursor int) string {
	start := strings.LastIndexByte(code[:cursor], '\n') + 1
	prefix := strings.TrimRight(code[start:cursor], " \t")
	end := len(prefix)
	begin := end
	for begin > 0 && isFragmentChar(prefix[begin-1]) {
		begin--
	}
	return prefix[begin:end]
}

// isFragmentChar reports identifier/keyword characters. '#' is included so
// preprocessor directives tokenize as one fragment.
func isFragmentChar(c byte) bool {
	return c == '_' || c == '#' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

func commonPrefixLen(a, b string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}
