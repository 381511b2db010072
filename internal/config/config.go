package config

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed schema.cue
var schemaCUE string

// DefaultMaxInstantiations caps the number of instantiation batches per run.
const DefaultMaxInstantiations = 100000

// Limits bounds the work done by one expansion.
type Limits struct {
	MaxInstantiations int `json:"max_instantiations"`
	Workers           int `json:"workers"`
}

// DefaultLimits returns the limits used when no config file is given.
func DefaultLimits() Limits {
	return Limits{MaxInstantiations: DefaultMaxInstantiations, Workers: 1}
}

// Config is the decoded configuration file.
type Config struct {
	Vocabulary Vocabulary
	Limits     Limits
}

// Default returns the PROV-Template vocabulary and default limits.
func Default() Config {
	return Config{Vocabulary: DefaultVocabulary(), Limits: DefaultLimits()}
}

// Error reports an invalid configuration file.
type Error struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// fileConfig mirrors #Config. Absent fields keep their defaults.
type fileConfig struct {
	Vocabulary *struct {
		Var           *string           `json:"var"`
		Vargen        *string           `json:"vargen"`
		Linked        *string           `json:"linked"`
		ValuePrefix   *string           `json:"value_prefix"`
		Value2DPrefix *string           `json:"value2d_prefix"`
		Values        *string           `json:"values"`
		UUIDNamespace *string           `json:"uuid_namespace"`
		Aliases       map[string]string `json:"aliases"`
	} `json:"vocabulary"`
	Limits *struct {
		MaxInstantiations *int `json:"max_instantiations"`
		Workers           *int `json:"workers"`
	} `json:"limits"`
}

// Load reads a CUE configuration file and merges it over Default.
func Load(path string) (Config, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(src, path)
}

// Parse validates CUE source against the embedded schema and merges it
// over Default. filename is used in error positions only.
func Parse(src []byte, filename string) (Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, fmt.Errorf("compile embedded schema: %w", err)
	}

	data := ctx.CompileBytes(src, cue.Filename(filename))
	if err := data.Err(); err != nil {
		return Config{}, formatCUEError(err)
	}

	v := schema.LookupPath(cue.ParsePath("#Config")).Unify(data)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return Config{}, formatCUEError(err)
	}

	var fc fileConfig
	if err := v.Decode(&fc); err != nil {
		return Config{}, formatCUEError(err)
	}

	cfg := Default()
	fc.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (fc fileConfig) apply(cfg *Config) {
	if voc := fc.Vocabulary; voc != nil {
		set := func(dst *string, src *string) {
			if src != nil {
				*dst = *src
			}
		}
		set(&cfg.Vocabulary.VarNamespace, voc.Var)
		set(&cfg.Vocabulary.VargenNamespace, voc.Vargen)
		set(&cfg.Vocabulary.LinkedPredicate, voc.Linked)
		set(&cfg.Vocabulary.ValuePrefix, voc.ValuePrefix)
		set(&cfg.Vocabulary.Value2DPrefix, voc.Value2DPrefix)
		set(&cfg.Vocabulary.ValuesPredicate, voc.Values)
		set(&cfg.Vocabulary.UUIDNamespace, voc.UUIDNamespace)
		if voc.Aliases != nil {
			cfg.Vocabulary.Aliases = voc.Aliases
		}
	}
	if lim := fc.Limits; lim != nil {
		if lim.MaxInstantiations != nil {
			cfg.Limits.MaxInstantiations = *lim.MaxInstantiations
		}
		if lim.Workers != nil {
			cfg.Limits.Workers = *lim.Workers
		}
	}
}

// Validate checks cross-field constraints the schema cannot express.
func (c Config) Validate() error {
	v := c.Vocabulary
	if v.VarNamespace == "" {
		return &Error{Field: "vocabulary.var", Message: "variable namespace is required"}
	}
	if v.VargenNamespace == v.VarNamespace {
		return &Error{Field: "vocabulary.vargen", Message: "vargen namespace must differ from var namespace"}
	}
	if v.ValuePrefix == v.Value2DPrefix {
		return &Error{Field: "vocabulary.value2d_prefix", Message: "2-D value prefix must differ from value prefix"}
	}
	if c.Limits.MaxInstantiations <= 0 {
		return &Error{Field: "limits.max_instantiations", Message: "must be positive"}
	}
	if c.Limits.Workers < 1 {
		return &Error{Field: "limits.workers", Message: "must be at least 1"}
	}
	return nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &Error{Field: "cue", Message: first.Error(), Pos: positions[0]}
	}
	return &Error{Field: "cue", Message: first.Error()}
}
