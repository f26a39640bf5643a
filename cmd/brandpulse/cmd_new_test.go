package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Wireless Headphones", "wireless-headphones"},
		{"  laptops  ", "laptops"},
		{"4K TVs & Monitors", "4k-tvs--monitors"},
		{"---", "study"},
		{"", "study"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, slugify(tt.input), "input %q", tt.input)
	}
}
