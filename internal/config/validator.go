package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidators registers chat-cleaner validation rules.
// Must be called before validating AppConfig.
func RegisterCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("journal_output", validateJournalOutput); err != nil {
		return fmt.Errorf("failed to register journal_output validator: %w", err)
	}
	if err := v.RegisterValidation("duration", validateDuration); err != nil {
		return fmt.Errorf("failed to register duration validator: %w", err)
	}
	return nil
}

// validateJournalOutput accepts "stdout", "none", "file://<absolute-path>"
// and "sqlite://<path>".
func validateJournalOutput(fl validator.FieldLevel) bool {
	output := fl.Field().String()

	switch {
	case output == "stdout", output == "none":
		return true
	case strings.HasPrefix(output, "file://"):
		path := strings.TrimPrefix(output, "file://")
		return path != "" && filepath.IsAbs(path)
	case strings.HasPrefix(output, "sqlite://"):
		return strings.TrimPrefix(output, "sqlite://") != ""
	}
	return false
}

// validateDuration accepts anything time.ParseDuration accepts, as long as
// it is not negative.
func validateDuration(fl validator.FieldLevel) bool {
	d, err := time.ParseDuration(fl.Field().String())
	return err == nil && d >= 0
}

// Validate validates the AppConfig using struct tags and cross-field rules.
// Returns an error with actionable messages if validation fails.
func (c *AppConfig) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := RegisterCustomValidators(v); err != nil {
		return err
	}

	if err := v.Struct(c); err != nil {
		return formatValidationErrors(err)
	}

	if err := c.validateRedis(); err != nil {
		return err
	}
	return c.validateStatsWindow()
}

// validateRedis requires an address and channel when the trigger is on.
func (c *AppConfig) validateRedis() error {
	if !c.Redis.Enabled {
		return nil
	}
	if c.Redis.Addr == "" {
		return errors.New("redis.addr is required when redis.enabled is true")
	}
	if c.Redis.Channel == "" {
		return errors.New("redis.channel is required when redis.enabled is true")
	}
	return nil
}

// validateStatsWindow ensures each sketch segment spans a positive duration.
func (c *AppConfig) validateStatsWindow() error {
	if c.Stats.Window == "" || c.Stats.Segments == 0 {
		return nil
	}
	w, err := time.ParseDuration(c.Stats.Window)
	if err != nil {
		return nil
	}
	if w/time.Duration(c.Stats.Segments) <= 0 {
		return fmt.Errorf("stats.window %s is too short for %d segments", c.Stats.Window, c.Stats.Segments)
	}
	return nil
}

// formatValidationErrors converts validator.ValidationErrors to user-friendly messages.
func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var messages []string
		for _, e := range validationErrors {
			messages = append(messages, formatSingleValidationError(e))
		}
		return errors.New(strings.Join(messages, "; "))
	}
	return err
}

func formatSingleValidationError(e validator.FieldError) string {
	field := e.Namespace()
	tag := e.Tag()

	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "startswith":
		return fmt.Sprintf("%s must start with %q", field, e.Param())
	case "hostname_port":
		return fmt.Sprintf("%s must be a valid host:port", field)
	case "journal_output":
		return fmt.Sprintf("%s must be 'stdout', 'none', 'file://<absolute-path>' or 'sqlite://<path>'", field)
	case "duration":
		return fmt.Sprintf("%s must be a non-negative duration such as '500ms' or '1m'", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, tag)
	}
}
