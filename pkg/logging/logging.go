package logging

import (
	"fmt"

	"github.com/fatih/color"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LogOpts struct {
	Verbose bool
	// Encoding is "console" (default) or "json".
	Encoding string
	// Color is "auto" (default), "always" or "never". Only console encoding is colored.
	Color string
}

func (opts LogOpts) Config() (zap.Config, error) {
	var zapCfg zap.Config
	if opts.Verbose {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Sampling = nil

	switch opts.Encoding {
	case "json":
		zapCfg.Encoding = "json"
	case "console", "":
		zapCfg.Encoding = "console"
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		if opts.useColor() {
			zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		} else {
			zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		}
	default:
		return zapCfg, fmt.Errorf("unknown log encoding %q", opts.Encoding)
	}
	return zapCfg, nil
}

func (opts LogOpts) useColor() bool {
	switch opts.Color {
	case "always", "on":
		return true
	case "never", "off":
		return false
	default:
		return !color.NoColor
	}
}

// NewLogger builds a logger from opts. When hadWarnings is not nil it is set as soon as an entry
// at warn level or above is written.
func (opts LogOpts) NewLogger(hadWarnings *atomic.Bool) (*zap.Logger, error) {
	zapCfg, err := opts.Config()
	if err != nil {
		return nil, err
	}
	var buildOpts []zap.Option
	if hadWarnings != nil {
		buildOpts = append(buildOpts, zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewTee(core, NewLevelListener(zapcore.WarnLevel, hadWarnings))
		}))
	}
	return zapCfg.Build(buildOpts...)
}
