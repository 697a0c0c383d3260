package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimpleNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"The Meetings of groups!", []string{"meeting", "group"}},
		{"meeting group party", []string{"meet", "group", "party"}},
		{"Parties, PARTIES and tech", []string{"party", "party", "tech"}},
		{"a I 42 x9", []string{"42", "x9"}},
		{"", []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, Simple{}.Normalize(tc.in))
		})
	}
}

func TestSimpleIsDeterministic(t *testing.T) {
	text := "Distributed indexing of computational relationships"
	assert.Equal(t, Simple{}.Normalize(text), Simple{}.Normalize(text))
}

func TestStem(t *testing.T) {
	assert.Equal(t, "relate", stem("relational"))
	assert.Equal(t, "happy", stem("happiness"))
	assert.Equal(t, "class", stem("class"))
	assert.Equal(t, "is", stem("is"))
}

func TestWhitespace(t *testing.T) {
	assert.Equal(t, []string{"tech", "computer", "party"}, Whitespace.Normalize("Tech  computer\tparty"))
	assert.Equal(t, "whitespace-v1", Whitespace.Name())
}

func TestIsStopWord(t *testing.T) {
	assert.True(t, IsStopWord("AND"))
	assert.False(t, IsStopWord("party"))
}
