// Package policy provides a simple, optional per-command approval layer that
// can be attached to a session via context. It is decoupled from the rest of
// the module so that using it is entirely opt-in; callers that do not embed
// the Policy in their context keep the original "auto" behaviour.

package policy

import (
	"context"
	"errors"
	"strings"
)

// Execution modes recognised by the command runner.
const (
	ModeAsk  = "ask"  // ask user before every command
	ModeAuto = "auto" // execute automatically (default)
	ModeDeny = "deny" // block execution
)

// ErrRejected reports a command refused by the active policy, detectable with
// errors.Is across the sync and queued execution paths.
var ErrRejected = errors.New("command rejected by policy")

// AskFunc is invoked when Mode==ask. Returning true approves the command,
// false rejects it. Implementations MAY mutate the policy (for example,
// switching to ModeAuto after the first approval).
type AskFunc func(
	ctx context.Context,
	host string, // target host URL
	command string,
	p *Policy,
) bool

// Policy represents the approval settings for command execution.
//
//   - Mode controls the high-level behaviour (ask / auto / deny).
//   - AllowList, BlockList filter commands regardless of Mode.
//   - Ask is only used when Mode==ask.
//
// A nil *Policy means "execute everything automatically" and is therefore the
// zero-cost default.
type Policy struct {
	Mode      string   // ask / auto / deny      (default = auto)
	AllowList []string // whitelist (empty => all)
	BlockList []string // blacklist
	Ask       AskFunc  // used only when Mode==ask
}

// Config represents the declarative, serialisable part of a Policy, used
// when a Policy with AskFunc cannot be persisted.
type Config struct {
	Mode      string   `json:"mode,omitempty" yaml:"mode,omitempty"`
	AllowList []string `json:"allow,omitempty" yaml:"allow,omitempty"`
	BlockList []string `json:"block,omitempty" yaml:"block,omitempty"`
}

// ToConfig converts a runtime Policy into a persistable Config.
func ToConfig(p *Policy) *Config {
	if p == nil {
		return nil
	}
	return &Config{
		Mode:      p.Mode,
		AllowList: append([]string(nil), p.AllowList...),
		BlockList: append([]string(nil), p.BlockList...),
	}
}

// FromConfig converts a stored Config back to a runtime Policy (without
// AskFunc).
func FromConfig(c *Config) *Policy {
	if c == nil {
		return nil
	}
	return &Policy{
		Mode:      c.Mode,
		AllowList: append([]string(nil), c.AllowList...),
		BlockList: append([]string(nil), c.BlockList...),
	}
}

// IsAllowed evaluates AllowList / BlockList against a command. A bare rule
// word matches the command's first token, a rule containing a space matches
// as a command prefix; both comparisons are case-insensitive. BlockList has
// priority; an empty AllowList admits everything.
func (p *Policy) IsAllowed(command string) bool {
	if p == nil {
		return true
	}

	for _, rule := range p.BlockList {
		if matches(command, rule) {
			return false
		}
	}

	if len(p.AllowList) == 0 {
		return true
	}

	for _, rule := range p.AllowList {
		if matches(command, rule) {
			return true
		}
	}

	return false
}

func matches(command, rule string) bool {
	rule = strings.ToLower(strings.TrimSpace(rule))
	if rule == "" {
		return false
	}
	command = strings.ToLower(strings.TrimSpace(command))
	if strings.ContainsRune(rule, ' ') {
		return strings.HasPrefix(command, rule)
	}
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return false
	}
	return fields[0] == rule
}

type ctxKeyT struct{}

var ctxKey ctxKeyT

// WithPolicy embeds policy in ctx.
func WithPolicy(ctx context.Context, p *Policy) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey, p)
}

// FromContext extracts the policy or nil.
func FromContext(ctx context.Context) *Policy {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxKey).(*Policy); ok {
		return v
	}
	return nil
}
