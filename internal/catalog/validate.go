package catalog

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationError reports a parameter that would corrupt the command
// line. No process is spawned and nothing reaches the history log.
type ValidationError struct {
	Param  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Param, e.Value, e.Reason)
}

// Characters that change command structure if a parameter ever reaches
// a shell, plus globs and quoting. Commands are spawned from argument
// vectors, but values a caller could later paste into a shell line are
// rejected up front all the same.
const pathMeta = ";&|$`<>(){}[]*?!~#\"'\\"

// Search patterns keep their regex vocabulary; only characters that
// split or chain commands are refused.
const patternMeta = ";&|`<>\"'"

var (
	optionToken = regexp.MustCompile(`^-{0,2}[A-Za-z0-9][A-Za-z0-9=:,.+_%-]*$`)
	serviceName = regexp.MustCompile(`^[A-Za-z0-9_.@:-]+$`)
)

// serviceActions is the allowlist of systemctl verbs the panel exposes.
var serviceActions = map[string]bool{
	"status":     true,
	"start":      true,
	"stop":       true,
	"restart":    true,
	"reload":     true,
	"enable":     true,
	"disable":    true,
	"is-active":  true,
	"is-enabled": true,
	"list-units": true,
}

func validatePath(param, value string) error {
	switch {
	case value == "":
		return &ValidationError{param, value, "must not be empty"}
	case strings.HasPrefix(value, "-"):
		return &ValidationError{param, value, "must not begin with a dash"}
	case strings.ContainsAny(value, pathMeta):
		return &ValidationError{param, value, "contains shell metacharacters"}
	case strings.ContainsAny(value, "\x00\n\r"):
		return &ValidationError{param, value, "contains control characters"}
	}
	return nil
}

func validatePattern(param, value string) error {
	switch {
	case value == "":
		return &ValidationError{param, value, "must not be empty"}
	case strings.ContainsAny(value, patternMeta):
		return &ValidationError{param, value, "contains shell metacharacters"}
	case strings.ContainsAny(value, "\x00\n\r"):
		return &ValidationError{param, value, "contains control characters"}
	}
	return nil
}

// splitOptions tokenizes a free-text options string and verifies each
// token looks like a plain flag or flag argument.
func splitOptions(options string) ([]string, error) {
	if strings.TrimSpace(options) == "" {
		return nil, nil
	}
	tokens := strings.Fields(options)
	for _, tok := range tokens {
		if !optionToken.MatchString(tok) {
			return nil, &ValidationError{"options", options, fmt.Sprintf("token %q is not a valid flag", tok)}
		}
	}
	return tokens, nil
}

func validateLines(lines int) error {
	if lines < 1 || lines > 1_000_000 {
		return &ValidationError{"lines", fmt.Sprintf("%d", lines), "must be between 1 and 1000000"}
	}
	return nil
}

func validateService(action, service string) error {
	if !serviceActions[action] {
		return &ValidationError{"action", action, "not an allowed systemctl action"}
	}
	if service != "" && !serviceName.MatchString(service) {
		return &ValidationError{"service", service, "not a valid unit name"}
	}
	return nil
}
