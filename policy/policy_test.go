package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicy_IsAllowed(t *testing.T) {
	testCases := []struct {
		description string
		policy      *Policy
		command     string
		expect      bool
	}{
		{
			description: "nil policy allows everything",
			policy:      nil,
			command:     "rm -rf /",
			expect:      true,
		},
		{
			description: "blocked first token",
			policy:      &Policy{BlockList: []string{"rm"}},
			command:     "rm -rf /tmp/cache",
			expect:      false,
		},
		{
			description: "token rule does not match longer program name",
			policy:      &Policy{BlockList: []string{"rm"}},
			command:     "rmdir /tmp/cache",
			expect:      true,
		},
		{
			description: "prefix rule matches whole command prefix",
			policy:      &Policy{BlockList: []string{"git push"}},
			command:     "git push origin main",
			expect:      false,
		},
		{
			description: "prefix rule leaves other subcommands alone",
			policy:      &Policy{BlockList: []string{"git push"}},
			command:     "git pull origin main",
			expect:      true,
		},
		{
			description: "allow list admits listed commands only",
			policy:      &Policy{AllowList: []string{"echo", "ls"}},
			command:     "ls -la",
			expect:      true,
		},
		{
			description: "allow list rejects unlisted commands",
			policy:      &Policy{AllowList: []string{"echo", "ls"}},
			command:     "cat /etc/passwd",
			expect:      false,
		},
		{
			description: "block list wins over allow list",
			policy:      &Policy{AllowList: []string{"rm"}, BlockList: []string{"rm"}},
			command:     "rm file.txt",
			expect:      false,
		},
		{
			description: "matching is case insensitive",
			policy:      &Policy{BlockList: []string{"RM"}},
			command:     "rm file.txt",
			expect:      false,
		},
		{
			description: "empty command never matches rules",
			policy:      &Policy{BlockList: []string{"rm"}},
			command:     "",
			expect:      true,
		},
	}

	for _, testCase := range testCases {
		actual := testCase.policy.IsAllowed(testCase.command)
		assert.Equal(t, testCase.expect, actual, testCase.description)
	}
}

func TestConfigConversion(t *testing.T) {
	assert.Nil(t, ToConfig(nil))
	assert.Nil(t, FromConfig(nil))

	policy := &Policy{
		Mode:      ModeAsk,
		AllowList: []string{"echo"},
		BlockList: []string{"rm"},
	}
	config := ToConfig(policy)
	restored := FromConfig(config)

	assert.Equal(t, policy.Mode, restored.Mode)
	assert.Equal(t, policy.AllowList, restored.AllowList)
	assert.Equal(t, policy.BlockList, restored.BlockList)
	assert.Nil(t, restored.Ask)
}

func TestContextHelpers(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))

	policy := &Policy{Mode: ModeDeny}
	ctx := WithPolicy(context.Background(), policy)
	assert.Equal(t, policy, FromContext(ctx))
}
