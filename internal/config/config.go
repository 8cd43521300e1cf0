// Package config loads and validates batch computation configs.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-ta/internal/types"
	"github.com/rxtech-lab/argo-ta/internal/version"
	"github.com/rxtech-lab/argo-ta/pkg/errors"
	"github.com/rxtech-lab/argo-ta/pkg/ta"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultPrecision is the number of decimals written when the config
	// does not set one.
	DefaultPrecision = 6

	FormatCSV     = "csv"
	FormatParquet = "parquet"
)

// Request is one indicator computation.
type Request struct {
	Name      string              `yaml:"name" json:"name" jsonschema:"title=Name,description=Unique name used as the output column prefix,required" validate:"required"`
	Indicator types.IndicatorType `yaml:"indicator" json:"indicator" jsonschema:"title=Indicator,description=Indicator to compute,required,enum=ma,enum=rsi,enum=macd,enum=kdj" validate:"required,oneof=ma rsi macd kdj"`
	Params    map[string]any      `yaml:"params" json:"params,omitempty" jsonschema:"title=Parameters,description=Indicator parameters by name (e.g. period or matype)"`
}

// Config describes a batch run: where the candles come from, which
// indicators to compute and where the results go.
type Config struct {
	Requires    string                     `yaml:"requires" json:"requires,omitempty" jsonschema:"title=Requires,description=Semver constraint on the argo-ta version (e.g. ~0.2)"`
	Data        string                     `yaml:"data" json:"data" jsonschema:"title=Data,description=Parquet or CSV file with time open high low close volume columns,required" validate:"required"`
	Symbol      optional.Option[string]    `yaml:"symbol" json:"symbol" jsonschema:"title=Symbol,description=Only use candles of this symbol"`
	Start       optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional inclusive start of the candle range"`
	End         optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional inclusive end of the candle range"`
	Output      string                     `yaml:"output" json:"output" jsonschema:"title=Output,description=Result file; standard output when empty"`
	Format      string                     `yaml:"format" json:"format" jsonschema:"title=Format,description=Output format; inferred from the output extension when empty,enum=csv,enum=parquet" validate:"omitempty,oneof=csv parquet"`
	Precision   int                        `yaml:"precision" json:"precision" jsonschema:"title=Precision,description=Decimals written per value,minimum=0,maximum=12" validate:"gte=0,lte=12"`
	Concurrency int                        `yaml:"concurrency" json:"concurrency" jsonschema:"title=Concurrency,description=Requests computed in parallel; number of CPUs when zero,minimum=0" validate:"gte=0"`
	Latest      bool                       `yaml:"latest" json:"latest" jsonschema:"title=Latest,description=Only output the final value of every line"`
	Requests    []Request                  `yaml:"requests" json:"requests" jsonschema:"title=Requests,description=Indicators to compute,required,minItems=1" validate:"required,min=1,dive"`
}

// UnmarshalYAML implements custom unmarshaling so optional fields become
// go-optional values and unset numbers get their defaults.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	type raw struct {
		Requires    string     `yaml:"requires"`
		Data        string     `yaml:"data"`
		Symbol      *string    `yaml:"symbol"`
		Start       *time.Time `yaml:"start_time"`
		End         *time.Time `yaml:"end_time"`
		Output      string     `yaml:"output"`
		Format      string     `yaml:"format"`
		Precision   *int       `yaml:"precision"`
		Concurrency int        `yaml:"concurrency"`
		Latest      bool       `yaml:"latest"`
		Requests    []Request  `yaml:"requests"`
	}

	var r raw
	if err := value.Decode(&r); err != nil {
		return err
	}

	*c = Config{
		Requires:    r.Requires,
		Data:        r.Data,
		Symbol:      optional.None[string](),
		Start:       optional.None[time.Time](),
		End:         optional.None[time.Time](),
		Output:      r.Output,
		Format:      r.Format,
		Precision:   DefaultPrecision,
		Concurrency: r.Concurrency,
		Latest:      r.Latest,
		Requests:    r.Requests,
	}

	if r.Symbol != nil && *r.Symbol != "" {
		c.Symbol = optional.Some(*r.Symbol)
	}

	if r.Start != nil {
		c.Start = optional.Some(*r.Start)
	}

	if r.End != nil {
		c.End = optional.Some(*r.End)
	}

	if r.Precision != nil {
		c.Precision = *r.Precision
	}

	return nil
}

// Load reads, parses and validates the YAML config at path. A relative
// data path is resolved against the config's directory.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config %s", path)
	}

	cfg, err := Parse(content)
	if err != nil {
		return nil, err
	}

	if !filepath.IsAbs(cfg.Data) {
		cfg.Data = filepath.Join(filepath.Dir(path), cfg.Data)
	}

	return cfg, nil
}

// Parse parses and validates a YAML config.
func Parse(content []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks struct tags and the rules tags cannot express.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	if err := version.CheckRequirement(version.GetVersion(), c.Requires); err != nil {
		return err
	}

	if c.Start.IsSome() && c.End.IsSome() && c.End.Unwrap().Before(c.Start.Unwrap()) {
		return errors.New(errors.ErrCodeInvalidConfiguration, "end_time is before start_time")
	}

	seen := make(map[string]bool, len(c.Requests))
	for _, req := range c.Requests {
		if seen[req.Name] {
			return errors.Newf(errors.ErrCodeInvalidConfiguration, "duplicate request name %q", req.Name)
		}

		seen[req.Name] = true
	}

	if c.Format == "" && c.Output != "" {
		if _, err := formatFromPath(c.Output); err != nil {
			return err
		}
	}

	return nil
}

// Mode returns the output mode the config asks for.
func (c *Config) Mode() ta.Mode {
	if c.Latest {
		return ta.Latest
	}

	return ta.Sequential
}

// Workers returns the effective concurrency limit.
func (c *Config) Workers() int {
	if c.Concurrency > 0 {
		return c.Concurrency
	}

	return runtime.NumCPU()
}

// OutputFormat returns the explicit format, or the one implied by the
// output extension. Standard output is always CSV.
func (c *Config) OutputFormat() string {
	if c.Format != "" {
		return c.Format
	}

	if c.Output == "" {
		return FormatCSV
	}

	format, err := formatFromPath(c.Output)
	if err != nil {
		return FormatCSV
	}

	return format
}

func formatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".parquet":
		return FormatParquet, nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidConfiguration,
			"cannot infer output format from %q: set format to csv or parquet", path)
	}
}

// GenerateSchema generates a JSON schema for the Config
func (c *Config) GenerateSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			switch t.String() {
			case "optional.Option[time.Time]":
				return &jsonschema.Schema{Type: "string", Format: "date-time"}
			case "optional.Option[string]":
				return &jsonschema.Schema{Type: "string"}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)
	schema.Title = "argo-ta-config"
	schema.Description = "Configuration schema for an argo-ta batch run"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema
}

// GenerateSchemaJSON generates a JSON schema string for the Config
func (c *Config) GenerateSchemaJSON() (string, error) {
	schemaBytes, err := json.MarshalIndent(c.GenerateSchema(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal schema: %w", err)
	}

	return string(schemaBytes), nil
}
