// Package secret resolves SSH credentials and secret-backed environment
// variables through viant/scy, so private keys and passwords never live in
// plain configuration.
package secret

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/viant/scy"
	"github.com/viant/scy/cred/secret"
	"github.com/viant/toolbox"
	"golang.org/x/crypto/ssh"
)

// Service resolves credentials and secret resources.
type Service struct {
	scyService *scy.Service
	secrets    *secret.Service
}

// New creates a new secret service
func New() *Service {
	return &Service{
		scyService: scy.New(),
		secrets:    secret.New(),
	}
}

// SSHConfig resolves an SSH client config from the named credentials
// resource. An empty name falls back to "localhost".
func (s *Service) SSHConfig(ctx context.Context, credentials string) (*ssh.ClientConfig, error) {
	if credentials == "" {
		credentials = "localhost"
	}
	generic, err := s.secrets.GetCredentials(ctx, credentials)
	if err != nil {
		return nil, err
	}
	return generic.SSH.Config(ctx)
}

// EnvFrom loads a secret resource holding a JSON object and flattens it
// into environment variables. Key is the optional encryption key, e.g.
// "blowfish://default"; when empty the resource is read as plain text.
func (s *Service) EnvFrom(ctx context.Context, sourceURL, key string) (map[string]string, error) {
	resource := scy.NewResource(nil, sourceURL, key)
	loaded, err := s.scyService.Load(ctx, resource)
	if err != nil {
		return nil, fmt.Errorf("failed to load secret env from %s: %w", sourceURL, err)
	}

	var values = map[string]interface{}{}
	if err := json.Unmarshal([]byte(loaded.String()), &values); err != nil {
		return nil, fmt.Errorf("failed to decode secret env from %s: %w", sourceURL, err)
	}

	env := make(map[string]string, len(values))
	for k, v := range values {
		env[k] = toolbox.AsString(v)
	}
	return env, nil
}
