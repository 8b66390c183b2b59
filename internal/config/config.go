package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"ubmsbridge/internal/alarm"
)

// Config is the fully resolved, validated daemon configuration.
type Config struct {
	Interface        string  `mapstructure:"interface" validate:"required"`
	CapacityAh       float64 `mapstructure:"capacity" validate:"required,gt=0"`
	MaxChargeVoltage float64 `mapstructure:"voltage" validate:"required,gt=0"`
	NumberOfModules  int     `mapstructure:"modules" validate:"required,min=1"`
	NumberOfStrings  int     `mapstructure:"strings" validate:"required,min=1,dividesmodules"`
	DeviceInstance   int     `mapstructure:"deviceinstance" validate:"min=0"`
	GPIORelayPin     string  `mapstructure:"gpio-relay-pin"`
	Debug            bool    `mapstructure:"debug"`
	DiagAddr         string  `mapstructure:"diag-addr"`

	Thresholds alarm.Thresholds `mapstructure:",squash"`
}

var validate = newValidator()

// Load builds the flag set, parses args, applies env/flag precedence via
// viper, and validates the result. args is normally os.Args[1:].
func Load(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("ubmsbridge", pflag.ContinueOnError)

	fs.StringP("interface", "i", "can0", "CAN interface name")
	fs.Float64P("capacity", "c", 130, "pack capacity, Ah")
	fs.Float64P("voltage", "v", 0, "pack max charge voltage, V (required)")
	fs.Int("modules", 16, "number of modules in the pack")
	fs.Int("strings", 4, "number of parallel strings")
	fs.Int("deviceinstance", 0, "bus device instance")
	fs.String("gpio-relay-pin", "", "GPIO line name for the alarm relay (disabled if empty)")
	fs.BoolP("debug", "d", false, "enable debug logging")
	fs.String("diag-addr", "", "loopback address for the diagnostics HTTP server (disabled if empty)")

	alarm.BindThresholdFlags(fs)

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("config: parse flags: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("UBMS")
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("config: bind flags: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return &cfg, nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("dividesmodules", validateDividesModules); err != nil {
		panic(fmt.Sprintf("config: failed to register custom validator: %v", err))
	}
	return v
}

// validateDividesModules enforces PackConfig's N % S == 0 invariant at the
// CLI boundary, before battery.NewPackConfig ever runs.
func validateDividesModules(fl validator.FieldLevel) bool {
	strings, ok := fl.Field().Interface().(int)
	if !ok || strings <= 0 {
		return false
	}
	parent := fl.Parent()
	modulesField := parent.FieldByName("NumberOfModules")
	if !modulesField.IsValid() {
		return false
	}
	return int(modulesField.Int())%strings == 0
}
