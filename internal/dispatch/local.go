package dispatch

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"texedit/pkg/textypes"
)

// renderFunc renders the help markdown. Kept as a function so tests can
// substitute a plain passthrough.
type renderFunc func(markdown string) string

// newHelpRenderer builds a glamour-backed markdown renderer. If the
// terminal renderer cannot be constructed the raw markdown is returned
// unstyled.
func newHelpRenderer() renderFunc {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return func(markdown string) string { return markdown }
	}
	return func(markdown string) string {
		out, err := renderer.Render(markdown)
		if err != nil {
			return markdown
		}
		return out
	}
}

// executeLocal runs a command that does not need the backend. Local
// handlers return immediately.
func (d *Dispatcher) executeLocal(parsed textypes.ParsedCommand) textypes.Result {
	var message string
	switch parsed.Base {
	case "help":
		message = d.helpText()
	case "clear":
		// The dispatcher only signals the intent; the owning surface
		// performs the actual clearing.
		message = "Input cleared"
	default:
		message = fmt.Sprintf("Command %q executed successfully", parsed.Base)
	}

	return textypes.Result{
		Command: parsed.Base,
		Outcome: textypes.OutcomeSuccess,
		Message: message,
	}
}

// helpText lists the currently eligible commands with usage and
// description, rendered as markdown.
func (d *Dispatcher) helpText() string {
	eligible := d.EligibleCommands()

	var b strings.Builder
	b.WriteString("# Available Commands\n\n")
	for _, name := range eligible {
		desc, _ := d.registry.Descriptor(name)
		fmt.Fprintf(&b, "- **%s**: %s\n", desc.Usage, desc.Description)
	}
	if !d.monitor.IsReady() {
		b.WriteString("\nBackend commands are hidden while the service is unreachable.\n")
	}

	return d.helpRenderer(b.String())
}
