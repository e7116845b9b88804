package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Log formats.
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// Schema registry modes.
const (
	SchemaModeFile    = "file"
	SchemaModeBuiltin = "builtin"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Data    DataConfig        `yaml:"data"`
	Schemas SchemasConfig     `yaml:"schemas"`
	Events  EventsConfig      `yaml:"events"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Data.Validate(); err != nil {
		return err
	}
	if err := c.Schemas.Validate(); err != nil {
		return err
	}
	return c.Events.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel  slog.Level `yaml:"log_level"`
	LogFormat string     `yaml:"log_format"`
	HTTP      HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if c.LogFormat == "" {
		c.LogFormat = LogFormatJSON
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.In(LogFormatJSON, LogFormatText)),
	); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns the HTTP listen address. The server binds every interface.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// DataConfig holds the directory of resource collection files.
type DataConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the data configuration.
func (c *DataConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SchemasConfig selects where resource schemas come from.
//
// Mode controls the registry:
//   - "file" (default): one document per resource under Path, seeded with the
//     built-in set on first start and writable through PUT /schemas/{name}.
//   - "builtin": the compiled-in documents only; Path is ignored.
type SchemasConfig struct {
	Mode string `yaml:"mode"`
	Path string `yaml:"path"`
}

// Validate validates the schemas configuration.
func (c *SchemasConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = SchemaModeFile
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(SchemaModeFile, SchemaModeBuiltin)),
	); err != nil {
		return err
	}
	if c.Mode == SchemaModeFile && c.Path == "" {
		return fmt.Errorf("schemas: mode is %q but path is empty", SchemaModeFile)
	}
	return nil
}

// Builtin reports whether only the compiled-in schemas are served.
func (c *SchemasConfig) Builtin() bool {
	return c.Mode == SchemaModeBuiltin
}

// EventsConfig holds the change feed settings.
type EventsConfig struct {
	// Throttle is the minimum gap between collection.changed events for one resource.
	Throttle time.Duration `yaml:"throttle"`
}

// Validate validates the events configuration.
func (c *EventsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Throttle, validation.Min(time.Duration(0))),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel:  slog.LevelInfo,
			LogFormat: LogFormatJSON,
			HTTP: HTTPConfig{
				Port: 3000,
			},
		},
		Data: DataConfig{
			Path: "./data",
		},
		Schemas: SchemasConfig{
			Mode: SchemaModeFile,
			Path: "./schemas",
		},
		Events: EventsConfig{
			Throttle: 2 * time.Second,
		},
	}
}
