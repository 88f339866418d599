package controllers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello-world"},
		{"  Mixed CASE  Title ", "mixed-case-title"},
		{"already-a-slug", "already-a-slug"},
		{"Symbols & Punctuation!!", "symbols-punctuation"},
		{"2026 Roadmap", "2026-roadmap"},
		{"---", ""},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, slugify(tc.in), "input %q", tc.in)
	}
}
