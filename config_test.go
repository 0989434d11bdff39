package sesh_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/sesh"
	"github.com/viant/sesh/model"
	"github.com/viant/sesh/policy"
)

func TestNewConfigFromURL(t *testing.T) {
	dir := t.TempDir()

	yamlDoc := `timeoutMs: 45000
env:
  CI: "true"
hosts:
  - url: localhost
  - url: ssh://build-01:2222
    credentials: build-bot
policy:
  mode: auto
  block:
    - rm
dispatcher:
  workerCount: 2
`
	yamlPath := filepath.Join(dir, "config.yaml")
	assert.NoError(t, os.WriteFile(yamlPath, []byte(yamlDoc), 0o644))

	config, err := sesh.NewConfigFromURL(context.Background(), yamlPath)
	assert.NoError(t, err)
	assert.Equal(t, 45000, config.TimeoutMs)
	assert.Equal(t, "true", config.Env["CI"])
	assert.Equal(t, 2, len(config.Hosts))
	assert.Equal(t, "build-bot", config.Hosts[1].Credentials)
	assert.Equal(t, []string{"rm"}, config.Policy.BlockList)
	assert.Equal(t, 2, config.Dispatcher.WorkerCount)

	jsonPath := filepath.Join(dir, "config.json")
	jsonDoc := `{"hosts":[{"url":"localhost"}],"timeoutMs":1000}`
	assert.NoError(t, os.WriteFile(jsonPath, []byte(jsonDoc), 0o644))

	config, err = sesh.NewConfigFromURL(context.Background(), jsonPath)
	assert.NoError(t, err)
	assert.Equal(t, 1000, config.TimeoutMs)
	assert.Equal(t, "localhost", config.Hosts[0].URL)
}

func TestNewConfigFromURL_Invalid(t *testing.T) {
	dir := t.TempDir()

	badPath := filepath.Join(dir, "bad.yaml")
	assert.NoError(t, os.WriteFile(badPath, []byte("hosts:\n  - url: ''\n"), 0o644))
	_, err := sesh.NewConfigFromURL(context.Background(), badPath)
	assert.Error(t, err)

	_, err = sesh.NewConfigFromURL(context.Background(), filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	testCases := []struct {
		description string
		config      *sesh.Config
		valid       bool
	}{
		{
			description: "zero value",
			config:      &sesh.Config{},
			valid:       true,
		},
		{
			description: "negative timeout",
			config:      &sesh.Config{TimeoutMs: -1},
		},
		{
			description: "host without URL",
			config:      &sesh.Config{Hosts: []*model.Host{{}}},
		},
		{
			description: "duplicate host",
			config:      &sesh.Config{Hosts: []*model.Host{{URL: "localhost"}, {URL: "localhost"}}},
		},
		{
			description: "unknown policy mode",
			config:      &sesh.Config{Policy: &policy.Config{Mode: "maybe"}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			err := tc.config.Validate()
			if tc.valid {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
		})
	}
}
