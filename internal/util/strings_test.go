package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinOrNone(t *testing.T) {
	assert.Equal(t, "(none)", JoinOrNone(nil))
	assert.Equal(t, "(none)", JoinOrNone([]string{}))
	assert.Equal(t, "zenhub", JoinOrNone([]string{"zenhub"}))
	assert.Equal(t, "zenhub, zenping", JoinOrNone([]string{"zenhub", "zenping"}))
}

func TestPluralize(t *testing.T) {
	tests := []struct {
		count int
		want  string
	}{
		{0, "0 devices"},
		{1, "1 device"},
		{2, "2 devices"},
		{-1, "-1 devices"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Pluralize(tt.count, "device", "devices"))
		})
	}
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b     string
		expected int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"abc", "abc", 0},
		{"test", "tset", 2},
		{"zenping", "zenpng", 1},
		{"zenhub", "zenhubs", 1},
		{"kitten", "sitting", 3},
	}

	for _, tt := range tests {
		t.Run(tt.a+"->"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.expected, LevenshteinDistance(tt.a, tt.b))
		})
	}
}

func TestSuggestSimilar(t *testing.T) {
	candidates := []string{"zenhub", "zenping", "zenperfsnmp", "zenjobs", "remote1", "zenping"}

	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"typo suggests correct", "zenpng", []string{"zenping"}},
		{"closest first", "zenjob", []string{"zenjobs", "zenhub"}},
		{"case insensitive", "ZENHUB", []string{"zenhub"}},
		{"duplicates collapse", "zenpin", []string{"zenping"}},
		{"no close match returns nil", "collector-west", nil},
		{"empty input returns nil", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SuggestSimilar(tt.input, candidates, 2))
		})
	}
}

func TestSuggestSimilar_EmptyCandidates(t *testing.T) {
	assert.Nil(t, SuggestSimilar("zenhub", nil, 2))
}
