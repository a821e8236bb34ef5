package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/dynenv/internal/dynamo"
	"github.com/san-kum/dynenv/internal/integrators"
)

const (
	DefaultModel  = "builtin:pendulum"
	DefaultSteps  = 1000
	DefaultScale  = 1.0
	DefaultKp     = 10.0
	DefaultKi     = 0.1
	DefaultKd     = 2.0
	DefaultOutput = "runs"
	DefaultTheme  = "cyberpunk"
)

var ErrInvalid = errors.New("config: invalid configuration")

type Config struct {
	Model      string       `yaml:"model" validate:"required"`
	Integrator string       `yaml:"integrator,omitempty" validate:"omitempty,integrator"`
	Steps      int          `yaml:"steps" validate:"gte=0"`
	Episodes   int          `yaml:"episodes" validate:"gte=1"`
	Seed       int64        `yaml:"seed"`
	Visualize  bool         `yaml:"visualize"`
	Theme      string       `yaml:"theme,omitempty"`
	Output     string       `yaml:"output"`
	Policy     PolicyConfig `yaml:"policy"`
	Init       InitConfig   `yaml:"init"`
}

type PolicyConfig struct {
	Name   string  `yaml:"name" validate:"oneof=none zero random replay pid lqr"`
	Scale  float64 `yaml:"scale" validate:"gte=0"`
	Kp     float64 `yaml:"kp"`
	Ki     float64 `yaml:"ki"`
	Kd     float64 `yaml:"kd"`
	Target float64 `yaml:"target"`
	// Replay names a stored run whose actions are played back.
	Replay string `yaml:"replay,omitempty" validate:"required_if=Name replay"`
}

// InitConfig is the start state. Missing trailing coordinates are zero.
type InitConfig struct {
	Pos []float64 `yaml:"pos,omitempty"`
	Vel []float64 `yaml:"vel,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:    DefaultModel,
		Steps:    DefaultSteps,
		Episodes: 1,
		Output:   DefaultOutput,
		Theme:    DefaultTheme,
		Policy: PolicyConfig{
			Name:  "none",
			Scale: DefaultScale,
			Kp:    DefaultKp,
			Ki:    DefaultKi,
			Kd:    DefaultKd,
		},
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("integrator", func(fl validator.FieldLevel) bool {
		return slices.Contains(integrators.Names(), fl.Field().String())
	})
	return v
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Load reads a YAML config on top of DefaultConfig and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// InitState builds a start state for a model with nq positions and nv
// velocities. Accelerations start at zero.
func (c *Config) InitState(nq, nv int) (dynamo.State, error) {
	if len(c.Init.Pos) > nq {
		return dynamo.State{}, &dynamo.ShapeError{Field: "init.pos", Expected: nq, Got: len(c.Init.Pos), Kind: dynamo.ErrDimensionMismatch}
	}
	if len(c.Init.Vel) > nv {
		return dynamo.State{}, &dynamo.ShapeError{Field: "init.vel", Expected: nv, Got: len(c.Init.Vel), Kind: dynamo.ErrDimensionMismatch}
	}
	s := dynamo.NewState(nq, nv)
	copy(s.Pos, c.Init.Pos)
	copy(s.Vel, c.Init.Vel)
	return s, nil
}

func (c *Config) Clone() *Config {
	out := *c
	out.Init.Pos = slices.Clone(c.Init.Pos)
	out.Init.Vel = slices.Clone(c.Init.Vel)
	return &out
}
