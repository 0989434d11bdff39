package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuard_IsInteractive(t *testing.T) {
	testCases := []struct {
		description string
		command     string
		expect      bool
	}{
		{
			description: "plain editor",
			command:     "vim notes.txt",
			expect:      true,
		},
		{
			description: "editor in composite command",
			command:     "cd /tmp && vim notes.txt",
			expect:      true,
		},
		{
			description: "editor after semicolon",
			command:     "make build; less build.log",
			expect:      true,
		},
		{
			description: "entry with arguments requires full prefix",
			command:     "tail -n 20 app.log",
			expect:      false,
		},
		{
			description: "follow tail flagged",
			command:     "tail -f app.log",
			expect:      true,
		},
		{
			description: "case insensitive",
			command:     "TOP",
			expect:      true,
		},
		{
			description: "interactive name as argument passes",
			command:     "echo vim",
			expect:      false,
		},
		{
			description: "interactive name inside quotes passes",
			command:     "grep 'vim file' history.log",
			expect:      false,
		},
		{
			description: "non interactive command",
			command:     "ls -la && pwd",
			expect:      false,
		},
		{
			description: "empty command",
			command:     "",
			expect:      false,
		},
		{
			description: "monitoring tool",
			command:     "watch -n1 date",
			expect:      true,
		},
	}

	g := New()
	for _, tc := range testCases {
		assert.Equal(t, tc.expect, g.IsInteractive(tc.command), tc.description)
	}
}

func TestGuard_Options(t *testing.T) {
	custom := New(WithCommands("mc"))
	assert.True(t, custom.IsInteractive("mc /srv"))
	assert.False(t, custom.IsInteractive("vim notes.txt"), "replaced catalog drops defaults")

	extended := New(WithAdditionalCommands("ranger"))
	assert.True(t, extended.IsInteractive("ranger"))
	assert.True(t, extended.IsInteractive("vim notes.txt"), "defaults kept")
}
