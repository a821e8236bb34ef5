package engine

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/dynenv/internal/dynamo"
)

const (
	DefaultTimestep = 0.01
	DefaultGravity  = 9.81

	builtinPrefix = "builtin:"
)

type JointType string

const (
	Hinge JointType = "hinge"
	Slide JointType = "slide"
)

type JointSpec struct {
	Name      string    `yaml:"name" validate:"required"`
	Type      JointType `yaml:"type" validate:"oneof=hinge slide"`
	Mass      float64   `yaml:"mass" validate:"gt=0"`
	Length    float64   `yaml:"length" validate:"gte=0"`
	Damping   float64   `yaml:"damping" validate:"gte=0"`
	Stiffness float64   `yaml:"stiffness" validate:"gte=0"`
	Rest      float64   `yaml:"rest"`
}

type CouplingSpec struct {
	A         string  `yaml:"a" validate:"required"`
	B         string  `yaml:"b" validate:"required,nefield=A"`
	Stiffness float64 `yaml:"stiffness" validate:"gt=0"`
}

type ActuatorSpec struct {
	Name      string    `yaml:"name" validate:"required"`
	Joint     string    `yaml:"joint" validate:"required"`
	Gear      float64   `yaml:"gear" validate:"ne=0"`
	CtrlRange []float64 `yaml:"ctrlrange,omitempty" validate:"omitempty,len=2"`
}

// ModelSpec is the model descriptor format.
type ModelSpec struct {
	Name       string         `yaml:"name" validate:"required,excludesall=/\\"`
	Timestep   float64        `yaml:"timestep" validate:"gt=0"`
	Gravity    float64        `yaml:"gravity" validate:"gte=0"`
	Integrator string         `yaml:"integrator"`
	Joints     []JointSpec    `yaml:"joints" validate:"required,min=1,dive"`
	Couplings  []CouplingSpec `yaml:"couplings,omitempty" validate:"omitempty,dive"`
	Actuators  []ActuatorSpec `yaml:"actuators,omitempty" validate:"omitempty,dive"`
}

func DefaultSpec() ModelSpec {
	return ModelSpec{
		Timestep: DefaultTimestep,
		Gravity:  DefaultGravity,
	}
}

var validate = validator.New()

// Validate checks field constraints and cross references between joints,
// couplings and actuators.
func (s ModelSpec) Validate() error {
	if err := validate.Struct(s); err != nil {
		return err
	}

	joints := make(map[string]bool, len(s.Joints))
	for _, j := range s.Joints {
		if joints[j.Name] {
			return fmt.Errorf("duplicate joint %q", j.Name)
		}
		joints[j.Name] = true
		if j.Type == Hinge && j.Length <= 0 {
			return fmt.Errorf("hinge joint %q needs a positive length", j.Name)
		}
	}

	for _, c := range s.Couplings {
		if !joints[c.A] || !joints[c.B] {
			return fmt.Errorf("coupling %s-%s references an unknown joint", c.A, c.B)
		}
	}

	actuators := make(map[string]bool, len(s.Actuators))
	for _, a := range s.Actuators {
		if actuators[a.Name] {
			return fmt.Errorf("duplicate actuator %q", a.Name)
		}
		actuators[a.Name] = true
		if !joints[a.Joint] {
			return fmt.Errorf("actuator %q drives unknown joint %q", a.Name, a.Joint)
		}
		if len(a.CtrlRange) == 2 && a.CtrlRange[0] >= a.CtrlRange[1] {
			return fmt.Errorf("actuator %q has an empty ctrlrange", a.Name)
		}
	}

	return nil
}

// ParseSpec decodes a YAML model descriptor on top of DefaultSpec.
func ParseSpec(data []byte) (ModelSpec, error) {
	spec := DefaultSpec()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil {
		return ModelSpec{}, err
	}
	return spec, nil
}

// Load resolves a descriptor and compiles it. A descriptor is either
// "builtin:<name>", a bare built-in name, or the path of a YAML file.
// Every failure wraps dynamo.ErrLoad.
func Load(descriptor string) (*Model, error) {
	spec, err := resolve(descriptor)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", dynamo.ErrLoad, descriptor, err)
	}
	m, err := Compile(spec)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", dynamo.ErrLoad, descriptor, err)
	}
	return m, nil
}

func resolve(descriptor string) (ModelSpec, error) {
	if descriptor == "" {
		return ModelSpec{}, errors.New("empty model descriptor")
	}

	if name, ok := strings.CutPrefix(descriptor, builtinPrefix); ok {
		spec, found := Builtin(name)
		if !found {
			return ModelSpec{}, fmt.Errorf("unknown built-in model %q", name)
		}
		return spec, nil
	}
	if spec, found := Builtin(descriptor); found {
		return spec, nil
	}

	data, err := os.ReadFile(descriptor)
	if err != nil {
		return ModelSpec{}, err
	}
	return ParseSpec(data)
}
