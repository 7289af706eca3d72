package ident

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"empty", "", false},
		{"single letter", "a", true},
		{"lower snake", "customer_orders", true},
		{"mixed case", "CustomerOrders", true},
		{"leading digit", "1st", true},
		{"underscore only", "_", true},
		{"max length", strings.Repeat("a", MaxNameLength), true},
		{"over max length", strings.Repeat("a", MaxNameLength+1), false},
		{"space", "a b", false},
		{"dash", "a-b", false},
		{"dot", "public.users", false},
		{"quoted", `"Users"`, true},
		{"quoted with space", `"a b"`, false},
		{"empty quotes", `""`, false},
		{"lone quote", `"`, false},
		{"two byte only", "é", true},
		{"three byte only", "€", true},
		{"two byte start", "éa", true},
		{"two byte middle", "aéa", true},
		{"two byte end", "aé", true},
		{"three byte start", "€a", true},
		{"three byte middle", "a€a", true},
		{"three byte end", "a€", true},
		{"four byte", "😀", false},
		{"orphan continuation", "\x80", false},
		{"orphan continuation after ascii", "a\xBF", false},
		{"truncated two byte", "a\xC3", false},
		{"truncated three byte", "a\xE2\x82", false},
		{"overlong lead", "\xC0\x80", false},
		{"quoted multibyte", `"é"`, true},
		{"max length in bytes with multibyte", strings.Repeat("é", 31) + "a", true},
		{"over max length in bytes with multibyte", strings.Repeat("é", 32), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidName(tt.input))
		})
	}
}

func TestIsValidName_ASCIILengths(t *testing.T) {
	const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_"
	for n := 1; n <= MaxNameLength; n++ {
		name := strings.Repeat(alphabet, 2)[:n]
		assert.True(t, IsValidName(name), "length %d", n)
	}
	assert.False(t, IsValidName(strings.Repeat("x", MaxNameLength+1)))
	assert.False(t, IsValidName(strings.Repeat("x", 200)))
}

func TestFormatName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		operator bool
		want     string
	}{
		{"lowercase", "abc", false, "abc"},
		{"uppercase", "Abc", false, `"Abc"`},
		{"already quoted", `"Foo"`, false, `"Foo"`},
		{"quoted schema quoted object", `"S"."T"`, false, `"S"."T"`},
		{"quoted schema bare object", `"S".t`, false, `"S".t`},
		{"bare schema quoted object", `s."T"`, false, `s."T"`},
		{"bare schema bare object", "public.users", false, "public.users"},
		{"two byte", "é", false, `"é"`},
		{"three byte", "a€", false, `"a€"`},
		{"digits", "t1", false, "t1"},
		{"invalid", "a b", false, ""},
		{"empty", "", false, ""},
		{"operator punctuation", "+", true, "+"},
		{"operator with letters", "@>", true, "@>"},
		{"operator uppercase", "X", true, `"X"`},
		{"dangling dot", "abc.", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatName(tt.input, tt.operator))
		})
	}
}

func TestFormatName_Idempotent(t *testing.T) {
	for _, name := range []string{"abc", "Abc", "é", "Öl_2", "t€st"} {
		once := FormatName(name, false)
		assert.Equal(t, once, FormatName(once, false), name)
	}
}

func TestNeedsQuotes(t *testing.T) {
	assert.False(t, NeedsQuotes("lower_case_1"))
	assert.True(t, NeedsQuotes("lowerX"))
	assert.True(t, NeedsQuotes("caf\xC3\xA9"))
	assert.False(t, NeedsQuotes("\x80\x80"), "orphan continuation bytes are not multibyte characters")
}
