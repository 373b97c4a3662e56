package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidConfig is returned when the provided config is not a pointer to a struct
	// that embeds EnvConfig.
	ErrInvalidConfig = errors.New("config must be a pointer to a struct embedding EnvConfig")

	// ErrVarNotSet is returned when a required environment variable is not set and has no default.
	ErrVarNotSet = errors.New("env var not set")

	// ErrUnsupportedVarType is returned when trying to parse an environment variable
	// into an unsupported Go type.
	ErrUnsupportedVarType = errors.New("unsupported env var type")
)

//nolint:gochecknoglobals
var (
	durationType  = reflect.TypeOf(time.Duration(0))
	envConfigType = reflect.TypeOf(EnvConfig{}) //nolint:exhaustruct
)

// LookupFunc resolves a single environment variable.
type LookupFunc func(key string) (string, bool)

// FieldError reports the variable a value could not be parsed from.
type FieldError struct {
	Var string
	Err error
}

func (e *FieldError) Error() string {
	return e.Var + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// EnvConfig is a base type that must be embedded in configuration structs
// to enable environment variable parsing.
type EnvConfig struct {
	namespace string
}

// Namespace returns the namespace the configuration was parsed with.
func (c EnvConfig) Namespace() string {
	return c.namespace
}

// Parse loads configuration values from environment variables into cfg.
// See ParseWith.
func Parse(ctx context.Context, cfg any, namespace string) error {
	return ParseWith(ctx, cfg, namespace, os.LookupEnv)
}

// ParseWith loads configuration values into cfg, resolving variables with lookup.
//
// cfg must be a pointer to a struct embedding EnvConfig. Fields are read from their
// `env` tag, falling back to the `default` tag; nested structs extend the variable
// name with their `envPrefix` tag. Each variable is looked up under the namespace
// first, then under every shorter namespace down to the bare name: with namespace
// "MEDIAGATE_SERVER" the field `env:"TTL"` in a struct tagged `envPrefix:"SESSION_"`
// is tried as MEDIAGATE_SERVER_SESSION_TTL, MEDIAGATE_SESSION_TTL and SESSION_TTL.
//
// Supported field types are string, bool, signed and unsigned integers and time.Duration.
func ParseWith(_ context.Context, cfg any, namespace string, lookup LookupFunc) error {
	root, err := envConfigOf(cfg)
	if err != nil {
		return err
	}

	root.namespace = namespace

	d := decoder{
		prefixes: namespacePrefixes(namespace),
		lookup:   lookup,
	}

	return d.decodeStruct(reflect.ValueOf(cfg).Elem(), "")
}

func envConfigOf(cfg any) (*EnvConfig, error) {
	ptr := reflect.ValueOf(cfg)
	if ptr.Kind() != reflect.Pointer || ptr.Elem().Kind() != reflect.Struct {
		return nil, ErrInvalidConfig
	}

	v := ptr.Elem()

	for i := range v.NumField() {
		if f := v.Type().Field(i); f.Anonymous && f.Type == envConfigType {
			//nolint:forcetypeassert
			return v.Field(i).Addr().Interface().(*EnvConfig), nil
		}
	}

	return nil, ErrInvalidConfig
}

// namespacePrefixes returns the variable prefixes from most to least specific,
// ending with the empty prefix.
func namespacePrefixes(namespace string) []string {
	var prefixes []string

	if namespace != "" {
		parts := strings.Split(namespace, "_")
		for i := len(parts); i > 0; i-- {
			prefixes = append(prefixes, strings.Join(parts[:i], "_")+"_")
		}
	}

	return append(prefixes, "")
}

type decoder struct {
	prefixes []string
	lookup   LookupFunc
}

func (d decoder) decodeStruct(v reflect.Value, envPrefix string) error {
	t := v.Type()

	for i := range t.NumField() {
		field := t.Field(i)
		if field.Type == envConfigType || !field.IsExported() {
			continue
		}

		if field.Type.Kind() == reflect.Struct && field.Type != durationType {
			if err := d.decodeStruct(v.Field(i), envPrefix+field.Tag.Get("envPrefix")); err != nil {
				return err
			}

			continue
		}

		key, ok := field.Tag.Lookup("env")
		if !ok || key == "" {
			continue
		}

		if err := d.decodeField(v.Field(i), envPrefix+key, field.Tag); err != nil {
			return err
		}
	}

	return nil
}

func (d decoder) decodeField(v reflect.Value, key string, tag reflect.StructTag) error {
	raw, name, found := d.resolve(key)
	if !found {
		def, hasDefault := tag.Lookup("default")
		if !hasDefault {
			return &FieldError{Var: d.prefixes[0] + key, Err: ErrVarNotSet}
		}

		raw = def
	}

	if err := setValue(v, raw); err != nil {
		return &FieldError{Var: name, Err: err}
	}

	return nil
}

// resolve returns the value and name of the most specific variable set for key.
// When none is set, name is the most specific candidate.
func (d decoder) resolve(key string) (value, name string, found bool) {
	for _, prefix := range d.prefixes {
		if value, ok := d.lookup(prefix + key); ok {
			return value, prefix + key, true
		}
	}

	return "", d.prefixes[0] + key, false
}

func setValue(v reflect.Value, raw string) error {
	if v.Type() == durationType {
		dur, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("parse duration: %w", err)
		}

		v.SetInt(int64(dur))

		return nil
	}

	//nolint:exhaustive
	switch v.Kind() {
	case reflect.String:
		v.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("parse bool: %w", err)
		}

		v.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, v.Type().Bits())
		if err != nil {
			return fmt.Errorf("parse int: %w", err)
		}

		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, v.Type().Bits())
		if err != nil {
			return fmt.Errorf("parse uint: %w", err)
		}

		v.SetUint(n)
	default:
		return fmt.Errorf("%w: %v", ErrUnsupportedVarType, v.Type())
	}

	return nil
}
