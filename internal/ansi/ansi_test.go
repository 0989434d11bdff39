package ansi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStrip(t *testing.T) {
	testCases := []struct {
		description string
		input       string
		expect      string
	}{
		{
			description: "plain text untouched",
			input:       "hello world\n",
			expect:      "hello world\n",
		},
		{
			description: "colour codes removed",
			input:       "\x1b[31mred\x1b[0m plain",
			expect:      "red plain",
		},
		{
			description: "cursor movement removed",
			input:       "\x1b[2J\x1b[Hcleared",
			expect:      "cleared",
		},
		{
			description: "two byte escape removed",
			input:       "\x1bMline",
			expect:      "line",
		},
		{
			description: "multi parameter sequence",
			input:       "\x1b[1;32mgreen bold\x1b[0m",
			expect:      "green bold",
		},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expect, Strip(tc.input), tc.description)
		assert.Equal(t, []byte(tc.expect), StripBytes([]byte(tc.input)), tc.description)
	}
}
