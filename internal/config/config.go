package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file looked up by the CLI.
const FileName = "weave.toml"

// Config is the whole weaving configuration.
type Config struct {
	Features    Features    `toml:"features"`
	Conventions Conventions `toml:"conventions"`
	Policy      Policy      `toml:"policy"`
}

// Features toggles the weaving passes.
type Features struct {
	Properties bool `toml:"properties"`
	Arguments  bool `toml:"arguments"`
	Calls      bool `toml:"calls"`
	Clean      bool `toml:"clean"`
}

// Conventions names the types and members the weaver looks for.
type Conventions struct {
	Markers           []string     `toml:"markers"`
	NotifyMethod      string       `toml:"notify_method"`
	EventField        string       `toml:"event_field"`
	EventArgsType     string       `toml:"event_args_type"`
	EventHandlerType  string       `toml:"event_handler_type"`
	ExcludeAttributes []string     `toml:"exclude_attributes"`
	HelperScope       string       `toml:"helper_scope"`
	HelperType        string       `toml:"helper_type"`
	SupportScope      string       `toml:"support_scope"`
	CoreScope         string       `toml:"core_scope"`
	Validations       []Validation `toml:"validations"`
}

// Validation maps a parameter/property attribute to a helper check method.
type Validation struct {
	Attribute string `toml:"attribute"`
	Check     string `toml:"check"`
}

// Policy holds behavioral switches.
type Policy struct {
	OverloadFallback Strictness `toml:"overload_fallback"`
}

// Default returns the built-in conventions.
func Default() Config {
	return Config{
		Features: Features{Properties: true, Arguments: true, Calls: true, Clean: true},
		Conventions: Conventions{
			Markers:           []string{"Catel.Data.ModelBase", "System.ComponentModel.INotifyPropertyChanged"},
			NotifyMethod:      "RaisePropertyChanged",
			EventField:        "PropertyChanged",
			EventArgsType:     "System.ComponentModel.PropertyChangedEventArgs",
			EventHandlerType:  "System.ComponentModel.PropertyChangedEventHandler",
			ExcludeAttributes: []string{"Catel.Fody.NoWeavingAttribute"},
			HelperScope:       "Catel.Core",
			HelperType:        "Catel.Argument",
			SupportScope:      "Catel.Fody.Attributes",
			CoreScope:         "System.Runtime",
			Validations: []Validation{
				{Attribute: "Catel.Fody.NotNullAttribute", Check: "IsNotNull"},
				{Attribute: "Catel.Fody.NotNullOrEmptyAttribute", Check: "IsNotNullOrEmpty"},
			},
		},
		Policy: Policy{OverloadFallback: Lenient},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (Config, error) {
	var file Config
	md, err := toml.DecodeFile(path, &file)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg := Default()
	cfg.overlay(&file, md)
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// overlay copies every key the file defines onto c.
func (c *Config) overlay(file *Config, md toml.MetaData) {
	set := func(dst, src any, key ...string) {
		if !md.IsDefined(key...) {
			return
		}
		switch d := dst.(type) {
		case *bool:
			*d = *src.(*bool)
		case *string:
			*d = *src.(*string)
		case *[]string:
			*d = *src.(*[]string)
		}
	}
	f, ff := &c.Features, &file.Features
	set(&f.Properties, &ff.Properties, "features", "properties")
	set(&f.Arguments, &ff.Arguments, "features", "arguments")
	set(&f.Calls, &ff.Calls, "features", "calls")
	set(&f.Clean, &ff.Clean, "features", "clean")

	cv, fc := &c.Conventions, &file.Conventions
	set(&cv.Markers, &fc.Markers, "conventions", "markers")
	set(&cv.NotifyMethod, &fc.NotifyMethod, "conventions", "notify_method")
	set(&cv.EventField, &fc.EventField, "conventions", "event_field")
	set(&cv.EventArgsType, &fc.EventArgsType, "conventions", "event_args_type")
	set(&cv.EventHandlerType, &fc.EventHandlerType, "conventions", "event_handler_type")
	set(&cv.ExcludeAttributes, &fc.ExcludeAttributes, "conventions", "exclude_attributes")
	set(&cv.HelperScope, &fc.HelperScope, "conventions", "helper_scope")
	set(&cv.HelperType, &fc.HelperType, "conventions", "helper_type")
	set(&cv.SupportScope, &fc.SupportScope, "conventions", "support_scope")
	set(&cv.CoreScope, &fc.CoreScope, "conventions", "core_scope")
	if md.IsDefined("conventions", "validations") {
		cv.Validations = fc.Validations
	}
	if md.IsDefined("policy", "overload_fallback") {
		c.Policy.OverloadFallback = file.Policy.OverloadFallback
	}
}

// Find walks up from startDir looking for FileName.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Validate checks the values the weaver cannot run without.
func (c *Config) Validate() error {
	var errs []error
	conv := &c.Conventions
	if strings.TrimSpace(conv.HelperType) == "" {
		errs = append(errs, errors.New("[conventions].helper_type must not be empty"))
	}
	if strings.TrimSpace(conv.CoreScope) == "" {
		errs = append(errs, errors.New("[conventions].core_scope must not be empty"))
	}
	if c.Features.Properties && len(conv.Markers) == 0 {
		errs = append(errs, errors.New("[conventions].markers must name at least one marker"))
	}
	if c.Features.Properties && strings.TrimSpace(conv.NotifyMethod) == "" {
		errs = append(errs, errors.New("[conventions].notify_method must not be empty"))
	}
	for i, v := range conv.Validations {
		if strings.TrimSpace(v.Attribute) == "" || strings.TrimSpace(v.Check) == "" {
			errs = append(errs, fmt.Errorf("[[conventions.validations]] #%d needs attribute and check", i+1))
		}
	}
	if !c.Policy.OverloadFallback.valid() {
		errs = append(errs, fmt.Errorf("[policy].overload_fallback: unknown value %q", string(c.Policy.OverloadFallback)))
	}
	return errors.Join(errs...)
}

// CheckFor returns the helper check bound to attribute.
func (c *Conventions) CheckFor(attribute string) (string, bool) {
	for _, v := range c.Validations {
		if v.Attribute == attribute {
			return v.Check, true
		}
	}
	return "", false
}

// IsMarker reports whether fullName is one of the markers.
func (c *Conventions) IsMarker(fullName string) bool {
	for _, m := range c.Markers {
		if m == fullName {
			return true
		}
	}
	return false
}

// Encode writes c as TOML.
func (c Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// WriteDefault writes the default configuration to path unless it exists.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := Default().Encode(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
