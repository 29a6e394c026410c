package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/fortressi/orgmanager/internal/gateway"
	"github.com/fortressi/orgmanager/internal/saga"
)

type PlanCmd struct {
	Saga string `arg:"" optional:"" help:"saga to print" enum:"acquire,fire_all" default:"acquire"`

	out io.Writer
}

func (c *PlanCmd) Run(_ *Globals) error {
	// Building plans makes no remote calls, so no client is needed.
	service, err := gateway.NewService(nil, zerolog.Nop())
	if err != nil {
		return err
	}

	plan, ok := service.Plan(saga.Name(c.Saga))
	if !ok {
		return fmt.Errorf("unknown saga %q", c.Saga)
	}
	dot, err := plan.ExportToDot()
	if err != nil {
		return err
	}
	out := c.out
	if out == nil {
		out = os.Stdout
	}
	_, err = fmt.Fprintln(out, dot)
	return err
}
