package model

import (
	"strings"

	"github.com/viant/afs/url"
)

// Host describes an execution target. URL selects the transport by scheme,
// e.g. "local://localhost" or "ssh://build-01:22"; a bare hostname is
// treated as ssh on the default port, localhost as a local subprocess.
type Host struct {
	URL          string            `json:"url" yaml:"url"`
	Credentials  string            `json:"credentials,omitempty" yaml:"credentials,omitempty"`
	Env          map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
	SecretEnvURL string            `json:"secretEnvURL,omitempty" yaml:"secretEnvURL,omitempty"`
	SecretEnvKey string            `json:"secretEnvKey,omitempty" yaml:"secretEnvKey,omitempty"`
}

// Scheme returns the transport scheme used to pick a session runner. An
// explicit URL scheme wins; otherwise localhost maps to "local" and
// everything else to "ssh".
func (h *Host) Scheme() string {
	if scheme := url.Scheme(h.URL, ""); scheme != "" {
		return scheme
	}
	if h.IsLocalhost() {
		return "local"
	}
	return "ssh"
}

// Hostname returns the host part of the URL without the port.
func (h *Host) Hostname() string {
	host := url.Host(h.URL)
	if host == "" {
		host = h.URL
	}
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		host = host[:idx]
	}
	return host
}

// IsLocalhost reports whether commands should run in a local subprocess.
func (h *Host) IsLocalhost() bool {
	name := h.Hostname()
	return name == "" || name == "localhost" || name == "127.0.0.1"
}

// SSHAddress returns the dial address, appending the default ssh port when
// the URL does not carry one.
func (h *Host) SSHAddress() string {
	host := url.Host(h.URL)
	if host == "" {
		host = h.URL
	}
	if !strings.Contains(host, ":") {
		host += ":22"
	}
	return host
}
