package config

import (
	"fmt"
	"net/url"

	"github.com/shinji-kodama/jp2gml/internal/model"
)

// ValidationError describes one invalid setting.
type ValidationError struct {
	// Field is the setting name as spelled in the file (e.g. "timeout").
	Field string

	// Message describes what is wrong with the value.
	Message string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation error: %s: %s", e.Field, e.Message)
}

// Validate checks every setting and returns the problems found. An empty
// result means the configuration is usable.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	if c.Format != "" {
		if _, err := model.ParseOutputFormat(c.Format); err != nil {
			errs = append(errs, ValidationError{
				Field:   "format",
				Message: fmt.Sprintf("%q is not one of xml, json, tfw, worldfile, info", c.Format),
			})
		}
	}

	if c.Formatting != "" {
		if _, err := model.ParseFormatting(c.Formatting); err != nil {
			errs = append(errs, ValidationError{
				Field:   "formatting",
				Message: fmt.Sprintf("%q is not one of pretty, raw", c.Formatting),
			})
		}
	}

	if d, err := c.TimeoutDuration(); err != nil {
		errs = append(errs, ValidationError{
			Field:   "timeout",
			Message: fmt.Sprintf("%q is not a duration: %v", c.Timeout, err),
		})
	} else if d <= 0 {
		errs = append(errs, ValidationError{
			Field:   "timeout",
			Message: "must be positive",
		})
	}

	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "baseURL",
				Message: fmt.Sprintf("%q is not an http(s) URL", c.BaseURL),
			})
		}
	}

	if c.ResolveCRS && c.CacheDir == "" {
		errs = append(errs, ValidationError{
			Field:   "cacheDir",
			Message: "required when resolveCRS is enabled",
		})
	}

	return errs
}
