package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHost(t *testing.T) {
	testCases := []struct {
		description string
		host        Host
		scheme      string
		hostname    string
		local       bool
		sshAddress  string
	}{
		{
			description: "bare localhost",
			host:        Host{URL: "localhost"},
			scheme:      "local",
			hostname:    "localhost",
			local:       true,
			sshAddress:  "localhost:22",
		},
		{
			description: "bare remote hostname",
			host:        Host{URL: "build-01"},
			scheme:      "ssh",
			hostname:    "build-01",
			local:       false,
			sshAddress:  "build-01:22",
		},
		{
			description: "ssh URL with port",
			host:        Host{URL: "ssh://build-01:2222"},
			scheme:      "ssh",
			hostname:    "build-01",
			local:       false,
			sshAddress:  "build-01:2222",
		},
		{
			description: "explicit scheme wins over localhost",
			host:        Host{URL: "ssh://localhost:2222"},
			scheme:      "ssh",
			hostname:    "localhost",
			local:       true,
			sshAddress:  "localhost:2222",
		},
		{
			description: "loopback address",
			host:        Host{URL: "127.0.0.1"},
			scheme:      "local",
			hostname:    "127.0.0.1",
			local:       true,
			sshAddress:  "127.0.0.1:22",
		},
	}

	for _, testCase := range testCases {
		assert.Equal(t, testCase.scheme, testCase.host.Scheme(), testCase.description)
		assert.Equal(t, testCase.hostname, testCase.host.Hostname(), testCase.description)
		assert.Equal(t, testCase.local, testCase.host.IsLocalhost(), testCase.description)
		assert.Equal(t, testCase.sshAddress, testCase.host.SSHAddress(), testCase.description)
	}
}
