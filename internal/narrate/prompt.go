package narrate

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

var prompts = template.Must(template.ParseFS(promptFS, "prompts/*.tmpl"))

// Prompt renders the model prompt for ev.
//
// Postcondition: Returns a non-empty prompt, or an error for an unknown Kind.
func Prompt(ev Event) (string, error) {
	name := string(ev.Kind) + ".tmpl"
	if prompts.Lookup(name) == nil {
		return "", fmt.Errorf("no prompt for narration kind %q", ev.Kind)
	}
	var buf bytes.Buffer
	if err := prompts.ExecuteTemplate(&buf, name, ev); err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", ev.Kind, err)
	}
	return buf.String(), nil
}
