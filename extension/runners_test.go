package extension

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/sesh/model"
	"github.com/viant/sesh/runner"
)

func TestRunners(t *testing.T) {
	runners := NewRunners()
	assert.Nil(t, runners.Lookup("ssh"))

	var created []string
	factory := func(ctx context.Context, host *model.Host, options ...runner.Option) (runner.Session, error) {
		created = append(created, host.URL)
		return nil, nil
	}
	runners.Register("ssh", factory)

	resolved := runners.Lookup("ssh")
	if assert.NotNil(t, resolved) {
		_, err := resolved(context.Background(), &model.Host{URL: "ssh://build-01"})
		assert.NoError(t, err)
		assert.Equal(t, []string{"ssh://build-01"}, created)
	}
	assert.ElementsMatch(t, []string{"ssh"}, runners.Schemes())
}
