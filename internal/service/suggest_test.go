package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestIsDeterministic(t *testing.T) {
	svc := NewSuggestService()

	first, err := svc.Suggest("def ", 4, "python")
	require.NoError(t, err)
	second, err := svc.Suggest("def ", 4, "python")
	require.NoError(t, err)

	assert.Equal(t, "def function_name(param1, param2):\n    pass", first.Suggestion)
	assert.Equal(t, first, second, "identical inputs must produce identical output")
}

func TestSuggestCursorOutOfRange(t *testing.T) {
	svc := NewSuggestService()

	_, err := svc.Suggest("def", -1, "python")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Suggest("def", 4, "python")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSuggestUnsupportedLanguage(t *testing.T) {
	svc := NewSuggestService()
	_, err := svc.Suggest("def", 3, "cobol")
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
}

func TestSuggestNoMatchIsNotAnError(t *testing.T) {
	svc := NewSuggestService()

	result, err := svc.Suggest("zzz", 3, "python")
	require.NoError(t, err)
	assert.Empty(t, result.Suggestion)
	require.NotNil(t, result.Alternatives, "alternatives serialize as [], not null")
	assert.Empty(t, result.Alternatives)
}

func TestSuggestEmptyFragmentYieldsNothing(t *testing.T) {
	svc := NewSuggestService()

	result, err := svc.Suggest("", 0, "python")
	require.NoError(t, err)
	assert.Empty(t, result.Suggestion)

	result, err = svc.Suggest("x = (", 5, "python")
	require.NoError(t, err)
	assert.Empty(t, result.Suggestion)
}

func TestSuggestUsesOnlyCursorLine(t *testing.T) {
	svc := NewSuggestService()

	code := "import os\nde"
	result, err := svc.Suggest(code, len(code), "python")
	require.NoError(t, err)
	assert.Equal(t, "def function_name(param1, param2):\n    pass", result.Suggestion)
}

func TestSuggestIgnoresTextAfterCursor(t *testing.T) {
	svc := NewSuggestService()

	// Cursor sits right after "def"; the rest of the buffer is irrelevant.
	result, err := svc.Suggest("def\nclass", 3, "python")
	require.NoError(t, err)
	assert.Equal(t, "def function_name(param1, param2):\n    pass", result.Suggestion)
}

func TestSuggestTrimsTrailingWhitespace(t *testing.T) {
	svc := NewSuggestService()

	result, err := svc.Suggest("for \t", 5, "python")
	require.NoError(t, err)
	assert.Equal(t, "for item in items:\n    print(item)", result.Suggestion)
}

func TestSuggestFragmentExtendingKeyStillMatches(t *testing.T) {
	svc := NewSuggestService()

	result, err := svc.Suggest("importlib", 9, "python")
	require.NoError(t, err)
	assert.Equal(t, "import os", result.Suggestion)
	assert.Equal(t, []string{"import os", "import sys"}, result.Alternatives)
}

func TestSuggestRanksByDeclarationOrderOnTies(t *testing.T) {
	svc := NewSuggestService()

	result, err := svc.Suggest("cons", 4, "javascript")
	require.NoError(t, err)
	assert.Equal(t, "const variable = ", result.Suggestion)
	assert.Equal(t, []string{
		"const variable = ",
		"const array = []",
		"const object = {}",
		"console.log()",
		"console.error()",
		"console.warn()",
	}, result.Alternatives)
}

func TestSuggestPreprocessorFragment(t *testing.T) {
	svc := NewSuggestService()

	result, err := svc.Suggest("#inc", 4, "cpp")
	require.NoError(t, err)
	assert.Equal(t, "#include <iostream>", result.Suggestion)
	assert.Len(t, result.Alternatives, 3)
}

func TestSuggestTypeScriptSharesJavaScriptTable(t *testing.T) {
	svc := NewSuggestService()

	result, err := svc.Suggest("async", 5, "typescript")
	require.NoError(t, err)
	assert.Equal(t, "async function name(params) {\n  \n}", result.Suggestion)
}

func TestSuggestLanguageAlias(t *testing.T) {
	svc := NewSuggestService()

	result, err := svc.Suggest("cou", 3, "C++")
	require.NoError(t, err)
	assert.Equal(t, "cout << \"\" << endl;", result.Suggestion)
}

func TestFragmentAt(t *testing.T) {
	cases := []struct {
		name   string
		code   string
		cursor int
		want   string
	}{
		{"plain keyword", "def", 3, "def"},
		{"trailing space", "def ", 4, "def"},
		{"mid line", "x = pri", 7, "pri"},
		{"after punctuation", "foo(bar", 7, "bar"},
		{"second line", "a\nwhile", 7, "while"},
		{"empty line", "a\n", 2, ""},
		{"hash directive", "#include", 8, "#include"},
		{"underscore", "my_var", 6, "my_var"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, fragmentAt(tc.code, tc.cursor))
		})
	}
}
