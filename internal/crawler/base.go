package crawler

import (
	"context"

	"sjsage522/bilisentiment/helpers"
	"sjsage522/bilisentiment/internal/pacing"
	"sjsage522/bilisentiment/logger"
)

// base provides what the danmaku fetcher and the comment crawler share
type base struct {
	pacer pacing.Pacer
	diag  helpers.LoggerInterface
	log   *logger.Logger
}

func newBase(pacer pacing.Pacer, diag helpers.LoggerInterface, log *logger.Logger) base {
	if pacer == nil {
		pacer = pacing.None
	}
	if diag == nil {
		diag = helpers.NewLogger("")
	}
	return base{pacer: pacer, diag: diag, log: log}
}

// wait must precede every provider request, the first included, so the
// pacer sees request 1 and spaces request 2 from it
func (b *base) wait(ctx context.Context) error {
	return b.pacer.Wait(ctx)
}

// recovered logs a failure confined to one unit of work
func (b *base) recovered(unit string, err error, msg string) {
	b.log.Warn().Err(err).Str("unit", unit).Msg(msg)
	b.diag.LogError(unit, err)
}
