package dispatch

import (
	"fmt"
	"strconv"
	"strings"

	"texedit/pkg/textypes"
)

// Percentage command defaults: with no argument the target is 25% with an
// acceptable band of 20%-30% (matches the backend's own default).
const (
	defaultRatio    = 0.25
	defaultMinRatio = 0.20
	defaultMaxRatio = 0.30
	floorMinRatio   = 0.05
)

// Parse splits raw input on the first whitespace run, normalizes the base
// command, and validates arguments against the command's argument shape.
// The returned ParsedCommand is fresh per call and never mutated afterwards.
func (d *Dispatcher) Parse(raw string) (textypes.ParsedCommand, error) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return textypes.ParsedCommand{}, fmt.Errorf("%w: empty input", textypes.ErrUnknownCommand)
	}

	base := d.registry.Resolve(fields[0])
	desc, ok := d.registry.Descriptor(base)
	if !ok {
		return textypes.ParsedCommand{}, fmt.Errorf("%w: %s", textypes.ErrUnknownCommand, fields[0])
	}

	parsed := textypes.ParsedCommand{
		Base:       base,
		RawArgs:    fields[1:],
		Structured: make(map[string]any),
	}

	switch desc.ArgumentKind {
	case textypes.ArgPercentage:
		if err := parsePercentageArgs(&parsed); err != nil {
			return textypes.ParsedCommand{}, err
		}
	case textypes.ArgEnumerated:
		if err := parseEnumeratedArgs(&parsed, desc.ArgumentValues); err != nil {
			return textypes.ParsedCommand{}, err
		}
	case textypes.ArgNone:
		if len(parsed.RawArgs) > 0 {
			return textypes.ParsedCommand{}, fmt.Errorf("%w: command %q takes no arguments", textypes.ErrValidation, base)
		}
	}

	return parsed, nil
}

// parsePercentageArgs handles the target-percentage grammar: zero arguments
// use the default band, exactly one integer argument p with 1 <= p <= 99
// derives ratio = p/100, min = max(0.05, 0.9*ratio), max = 1.1*ratio.
// Anything else is a validation failure, never a silent clamp.
func parsePercentageArgs(parsed *textypes.ParsedCommand) error {
	switch len(parsed.RawArgs) {
	case 0:
		parsed.Structured["ratio"] = defaultRatio
		parsed.Structured["min_ratio"] = defaultMinRatio
		parsed.Structured["max_ratio"] = defaultMaxRatio
		return nil
	case 1:
		p, err := strconv.Atoi(parsed.RawArgs[0])
		if err != nil {
			return fmt.Errorf("%w: percentage must be an integer, got %q", textypes.ErrValidation, parsed.RawArgs[0])
		}
		if p <= 0 || p >= 100 {
			return fmt.Errorf("%w: percentage must be between 1 and 99, got %d", textypes.ErrValidation, p)
		}
		ratio := float64(p) / 100.0
		parsed.Structured["ratio"] = ratio
		parsed.Structured["min_ratio"] = max(floorMinRatio, ratio*0.9)
		parsed.Structured["max_ratio"] = ratio * 1.1
		return nil
	default:
		return fmt.Errorf("%w: too many arguments, usage: %q or %q <percentage>", textypes.ErrValidation, parsed.Base, parsed.Base)
	}
}

// parseEnumeratedArgs validates an optional argument against the closed
// value set, case-insensitively. Absence of the argument is valid.
func parseEnumeratedArgs(parsed *textypes.ParsedCommand, values []string) error {
	switch len(parsed.RawArgs) {
	case 0:
		return nil
	case 1:
		arg := strings.ToLower(parsed.RawArgs[0])
		for _, v := range values {
			if strings.ToLower(v) == arg {
				parsed.Structured["option"] = v
				return nil
			}
		}
		return fmt.Errorf("%w: invalid value %q for %q, accepted: %s",
			textypes.ErrValidation, parsed.RawArgs[0], parsed.Base, strings.Join(values, ", "))
	default:
		return fmt.Errorf("%w: command %q takes at most one argument", textypes.ErrValidation, parsed.Base)
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
