package cli

import (
	"errors"

	"github.com/mhahn/stacker-blueprints/pkg/blueprint"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type ErrorHandler struct {
	Verbose       bool
	PostPrintHook func()
}

func (h ErrorHandler) PrintErr(err error) {
	h.printErr(err, 0)
	if h.PostPrintHook != nil {
		h.PostPrintHook()
	}
}

func (h ErrorHandler) printErr(err error, num int) (nextNum int) {
	log := zap.L()

	errFmt := "%v"
	if h.Verbose {
		errFmt = "%+v"
	}

	errs := multierr.Errors(err)
	switch len(errs) {
	case 0:
		return num
	case 1:
		err = errs[0]
	default:
		log.Sugar().Errorf("%d errors:", len(errs))
		for _, err := range errs {
			num = h.printErr(err, num)
		}
		return num
	}
	num++

	var cfgErr *blueprint.ConfigError
	if errors.As(err, &cfgErr) && cfgErr.Stack != "" {
		log = log.With(zap.String("stack", cfgErr.Stack), zap.String(cfgErr.Kind, cfgErr.Key))
	}
	log.Sugar().Errorf("[err %d] "+errFmt, num, err)
	return num
}
