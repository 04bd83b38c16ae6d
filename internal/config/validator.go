package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

func oneOf(values ...string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		v := strings.ToLower(fl.Field().String())
		if v == "" {
			return true
		}
		for _, allowed := range values {
			if v == allowed {
				return true
			}
		}
		return false
	}
}

func newValidator() *validator.Validate {
	validate := validator.New()

	_ = validate.RegisterValidation("loglevel", oneOf("debug", "info", "warn", "error", "fatal", "panic"))
	_ = validate.RegisterValidation("logformat", oneOf("console", "text", "json"))
	_ = validate.RegisterValidation("transport", oneOf(TransportHTTP, TransportColly, TransportBrowser))
	_ = validate.RegisterValidation("notifywhen", oneOf(NotifyWhenChanges, NotifyWhenAlways, NotifyWhenNever))
	_ = validate.RegisterValidation("corruptpolicy", oneOf(CorruptPolicyFail, CorruptPolicyFresh))
	_ = validate.RegisterValidation("contenttype", oneOf("html", "text", "auto"))

	return validate
}

// ValidateConfig performs validation on the GlobalConfig structure.
func ValidateConfig(cfg *GlobalConfig) error {
	if cfg == nil {
		return errors.New("configuration is nil")
	}

	var messages []string

	if err := newValidator().Struct(cfg); err != nil {
		var errs validator.ValidationErrors
		if !errors.As(err, &errs) {
			return fmt.Errorf("configuration validation error: %w", err)
		}
		for _, e := range errs {
			msg := fmt.Sprintf("Validation failed for '%s': rule '%s'", trimNamespace(e.Namespace()), e.Tag())
			if e.Param() != "" {
				msg += fmt.Sprintf(" (expected: %s)", e.Param())
			}
			if e.Value() != nil && e.Value() != "" {
				msg += fmt.Sprintf(", actual: '%v'", e.Value())
			}
			messages = append(messages, msg)
		}
	}

	messages = append(messages, duplicateResourceMessages(cfg.Resources)...)

	if email := cfg.NotificationConfig.Email; email.Enabled {
		if email.SenderEmail == "" {
			messages = append(messages, "Validation failed for 'NotificationConfig.Email.SenderEmail': rule 'required when email is enabled'")
		}
		if len(email.Recipients) == 0 {
			messages = append(messages, "Validation failed for 'NotificationConfig.Email.Recipients': rule 'required when email is enabled'")
		}
	}

	if len(messages) > 0 {
		return fmt.Errorf("configuration validation failed:\n  %s", strings.Join(messages, "\n  "))
	}
	return nil
}

func duplicateResourceMessages(resources []ResourceConfig) []string {
	var messages []string
	seen := make(map[string]int, len(resources))
	for i, r := range resources {
		if first, dup := seen[r.ID]; dup {
			messages = append(messages, fmt.Sprintf("Duplicate resource id '%s' at index %d (first at %d)", r.ID, i, first))
			continue
		}
		seen[r.ID] = i
	}
	return messages
}

func trimNamespace(ns string) string {
	return strings.TrimPrefix(ns, "GlobalConfig.")
}
