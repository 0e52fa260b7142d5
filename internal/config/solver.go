package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/vancomm/flattener/internal/anneal"
)

// Duration accepts either a Go duration string ("5.5s") or a plain integer
// number of milliseconds.
type Duration struct{ time.Duration }

func ParseDuration(s string) (Duration, error) {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Duration{time.Duration(ms) * time.Millisecond}, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return Duration{}, err
	}
	return Duration{d}, nil
}

// [Duration] implements [json.Marshaler]
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value) * time.Millisecond
		return nil
	case string:
		parsed, err := ParseDuration(value)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	default:
		return errors.New("invalid duration")
	}
}

func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = parsed
	return nil
}

// Solver holds the search parameters. Seed 0 asks for a random seed.
type Solver struct {
	N          int      `yaml:"n" json:"n"`
	K          int      `yaml:"k" json:"k"`
	TimeBudget Duration `yaml:"time_budget" json:"time_budget"`
	TempStart  float64  `yaml:"temp_start" json:"temp_start"`
	TempEnd    float64  `yaml:"temp_end" json:"temp_end"`
	Seed       uint64   `yaml:"seed" json:"seed"`
}

func DefaultSolver() Solver {
	opts := anneal.DefaultOptions()
	return Solver{
		N:          opts.N,
		K:          opts.K,
		TimeBudget: Duration{opts.TimeBudget},
		TempStart:  opts.TempStart,
		TempEnd:    opts.TempEnd,
	}
}

// LoadSolver reads a YAML file on top of the defaults. Keys missing from the
// file keep their default value.
func LoadSolver(path string) (Solver, error) {
	s := DefaultSolver()
	raw, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return s, fmt.Errorf("%s: %w", path, err)
	}
	return s, s.Validate()
}

// ApplyEnv overrides fields from FLATTEN_* environment variables.
func (s *Solver) ApplyEnv() error {
	ints := []struct {
		key string
		dst *int
	}{
		{"FLATTEN_N", &s.N},
		{"FLATTEN_K", &s.K},
	}
	for _, e := range ints {
		if v, ok := os.LookupEnv(e.key); ok {
			i, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", e.key, err)
			}
			*e.dst = i
		}
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{"FLATTEN_TEMP_START", &s.TempStart},
		{"FLATTEN_TEMP_END", &s.TempEnd},
	}
	for _, e := range floats {
		if v, ok := os.LookupEnv(e.key); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%s: %w", e.key, err)
			}
			*e.dst = f
		}
	}

	if v, ok := os.LookupEnv("FLATTEN_TIME_BUDGET"); ok {
		d, err := ParseDuration(v)
		if err != nil {
			return fmt.Errorf("FLATTEN_TIME_BUDGET: %w", err)
		}
		s.TimeBudget = d
	}
	if v, ok := os.LookupEnv("FLATTEN_SEED"); ok {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("FLATTEN_SEED: %w", err)
		}
		s.Seed = seed
	}
	return s.Validate()
}

func (s Solver) Options() anneal.Options {
	opts := anneal.DefaultOptions()
	opts.N = s.N
	opts.K = s.K
	opts.TimeBudget = s.TimeBudget.Duration
	opts.TempStart = s.TempStart
	opts.TempEnd = s.TempEnd
	return opts
}

func (s Solver) Validate() error {
	return s.Options().Validate()
}

func (s Solver) Fields() logrus.Fields {
	return logrus.Fields{
		"n":           s.N,
		"k":           s.K,
		"time_budget": s.TimeBudget.String(),
		"temp_start":  s.TempStart,
		"temp_end":    s.TempEnd,
		"seed":        s.Seed,
	}
}
