package ssh

import (
	"context"
	"fmt"
	"strings"
)

// processList is the side channel command listing remote process command
// lines.
const processList = "ps -eo command"

// pscommand inspects the remote process table through the commander. A
// clause counts as still running while any table line's trimmed text ends
// with the clause verbatim.
type pscommand struct {
	commander Commander
}

func (d *pscommand) Exited(ctx context.Context, command string) (bool, error) {
	output, err := d.commander.Output(ctx, processList)
	if err != nil {
		return false, fmt.Errorf("failed to list remote processes: %w", err)
	}
	for _, line := range strings.Split(output, "\n") {
		if strings.HasSuffix(strings.TrimSpace(line), command) {
			return false, nil
		}
	}
	return true, nil
}
