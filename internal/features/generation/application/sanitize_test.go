package application

import (
	"math/rand"
	"reflect"
	"strings"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "  export default function App() {}\n", "export default function App() {}"},
		{"tsx fence", "```tsx\nconst a = 1;\n```", "const a = 1;"},
		{"typescript fence with prose", "Here you go:\n```typescript\nconst a = 1;\n```\nEnjoy", "const a = 1;"},
		{"bare fence", "```\nx\n```", "x"},
		{"first block wins", "```js\na\n```\n```js\nb\n```", "a"},
		{"unterminated fence", "```tsx\nimport React from 'react'\n", "import React from 'react'"},
		{"opening fence in flight", "```tsx\n", ""},
		{"backticks in flight", "``", ""},
		{"closing fence in flight", "```tsx\nconst a = 1;\n``", "const a = 1;"},
		{"inline backticks kept", "const s = `x`", "const s = `x`"},
		{"crlf", "```tsx\r\nx\r\n```", "x"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Sanitize(tc.in))
		})
	}
}

// fenceText builds strings from fragments that exercise fence handling.
type fenceText string

func (fenceText) Generate(r *rand.Rand, size int) reflect.Value {
	tokens := []string{"```", "```tsx\n", "```typescript", "\n", " ", "\t", "`", "``", "a", "code", "\r\n", "tsx"}
	var b strings.Builder
	for i := r.Intn(size + 1); i > 0; i-- {
		b.WriteString(tokens[r.Intn(len(tokens))])
	}
	return reflect.ValueOf(fenceText(b.String()))
}

func TestSanitizeIdempotent(t *testing.T) {
	property := func(s fenceText) bool {
		once := Sanitize(string(s))
		return Sanitize(once) == once
	}
	assert.NoError(t, quick.Check(property, &quick.Config{MaxCount: 2000}))

	plain := func(s string) bool {
		once := Sanitize(s)
		return Sanitize(once) == once
	}
	assert.NoError(t, quick.Check(plain, nil))
}
