package config

import "sort"

var Presets = map[string]*Config{
	// 1000 uniform random actions on a seven-motor arm.
	"pr2_demo": {
		Model: "builtin:pr2_lite", Steps: 1000, Episodes: 1, Output: DefaultOutput,
		Policy: PolicyConfig{Name: "random", Scale: 1.0},
	},
	"random_arm": {
		Model: "builtin:arm5", Steps: 500, Episodes: 2, Seed: 7, Output: DefaultOutput,
		Policy: PolicyConfig{Name: "random", Scale: 1.0},
	},
	"free_pendulum": {
		Model: "builtin:pendulum", Integrator: "rk4", Steps: 2000, Episodes: 1, Output: DefaultOutput,
		Policy: PolicyConfig{Name: "none"},
		Init:   InitConfig{Pos: []float64{1.0}},
	},
	"pendulum_pid": {
		Model: "builtin:pendulum", Steps: 1000, Episodes: 1, Output: DefaultOutput,
		Policy: PolicyConfig{Name: "pid", Kp: DefaultKp, Ki: DefaultKi, Kd: DefaultKd, Target: 0.5},
	},
	"cartpole_push": {
		Model: "builtin:cartpole_lite", Integrator: "rk4", Steps: 800, Episodes: 1, Output: DefaultOutput,
		Policy: PolicyConfig{Name: "zero"},
		Init:   InitConfig{Pos: []float64{0.5, 0.2}},
	},
	"arm_hold": {
		Model: "builtin:arm5", Steps: 600, Episodes: 1, Output: DefaultOutput,
		Policy: PolicyConfig{Name: "lqr", Kp: 4, Kd: 1},
		Init:   InitConfig{Pos: []float64{0.3, -0.3, 0.3, -0.3, 0.3}},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
