// SPDX-License-Identifier: Apache-2.0

// Package prompts holds the assistant's prompt templates. Templates live in
// an embedded YAML file and are rendered with text/template.
package prompts

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yml
var promptsYAML []byte

var (
	loadOnce sync.Once
	loaded   map[string]*template.Template
	loadErr  error
)

func load() (map[string]*template.Template, error) {
	loadOnce.Do(func() {
		raw := map[string]string{}
		if err := yaml.Unmarshal(promptsYAML, &raw); err != nil {
			loadErr = fmt.Errorf("parse prompts.yml: %w", err)
			return
		}
		loaded = make(map[string]*template.Template, len(raw))
		for name, body := range raw {
			tmpl, err := template.New(name).Parse(body)
			if err != nil {
				loadErr = fmt.Errorf("parse prompt %q: %w", name, err)
				return
			}
			loaded[name] = tmpl
		}
	})
	return loaded, loadErr
}

// Render renders the named prompt template with the given data. Data may be
// nil for templates without variables.
func Render(name string, data any) (string, error) {
	templates, err := load()
	if err != nil {
		return "", err
	}
	tmpl, ok := templates[name]
	if !ok {
		return "", fmt.Errorf("unknown prompt: %s", name)
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render prompt %q: %w", name, err)
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

// MustRender renders the named prompt and panics on failure. Intended for
// templates embedded at build time, where failure is a programming error.
func MustRender(name string, data any) string {
	out, err := Render(name, data)
	if err != nil {
		panic(err)
	}
	return out
}
