package plugin

import (
	"context"

	"github.com/nom-cli/plugin-sdk/domain/ports"
	"github.com/nom-cli/plugin-sdk/wireformat"
)

// Call carries the decoded arguments of one invocation.
type Call struct {
	emit ports.Emitter
	Args wireformat.Args
}

// Emit encodes v as an envelope and fires the instance callback synchronously.
// Without a registered callback it does nothing. Callback failures are not
// reported; only an encoding failure is.
func (c *Call) Emit(ctx context.Context, v any) error {
	if c.emit == nil {
		return nil
	}
	payload, err := wireformat.EncodeString(v)
	if err != nil {
		return err
	}
	c.emit.Fire(ctx, payload)
	return nil
}
