package maincmd

import "github.com/caarlos0/env/v6"

// limits holds the VM tunables resolvable from environment variables,
// following the teacher's use of github.com/caarlos0/env/v6 through
// internal/maincmd for struct-tag-driven environment parsing (the teacher
// itself leaves this wiring for "some flags" to use; this repo is the
// first caller to actually need it, for the VM's register-stack, call-
// depth and step-count ceilings).
type limits struct {
	MaxStack     int `env:"LUAJ_MAX_STACK" envDefault:"0"`
	MaxCallDepth int `env:"LUAJ_MAX_CALLDEPTH" envDefault:"0"`
	MaxSteps     int `env:"LUAJ_MAX_STEPS" envDefault:"0"`
}

// parseLimits resolves limits from the process environment. A zero value
// for any field (unset or explicitly "0") leaves machine.State to apply
// its own default for that tunable.
func parseLimits() (limits, error) {
	var l limits
	if err := env.Parse(&l); err != nil {
		return limits{}, err
	}
	return l, nil
}
