// Package prompt manages the named prompt templates and composes the
// final prompt from a template plus OCR text.
package prompt

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Placeholder is the marker in a template body replaced by the OCR text.
const Placeholder = "{text}"

// Built-in templates, always available. User templates from the store
// file are merged over these and win on name collisions.
var defaults = map[string]string{
	"Default (General Reasoning)": "You are a logic expert. You will receive raw text extracted from an image by an OCR pass.\n" +
		"It contains a multiple-choice question and several answer options.\n" +
		"--- RAW OCR TEXT ---\n" + Placeholder + "\n--- END RAW TEXT ---\n" +
		"Ignore OCR noise, identify the question and the options, and answer ONLY with the text of the correct option.",
	"Numeric Aptitude (Math/Logic)": "You are a rigorous mathematician solving a multiple-choice problem.\n" +
		"--- RAW OCR TEXT ---\n" + Placeholder + "\n--- END RAW TEXT ---\n" +
		"Work through the computation precisely, compare against the options, and answer ONLY with the correct option.",
	"Data Sufficiency": "You are an expert in data sufficiency. The question provides statements (1) and (2).\n" +
		"--- RAW OCR TEXT ---\n" + Placeholder + "\n--- END RAW TEXT ---\n" +
		"Evaluate (1) alone, (2) alone, then both together. Answer ONLY with the correct option.",
}

// Template is one named prompt body with a placeholder for OCR text.
type Template struct {
	Name string
	Body string
}

// TemplateError reports a lookup of a template name that does not exist
// in the current mapping.
type TemplateError struct {
	Name string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("prompt template %q not found", e.Name)
}

// Store reads and writes the user-editable template file. The file is
// read fresh on every lookup so edits between runs are always seen.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load returns the current name→body mapping: built-in defaults merged
// with the store file. A missing file is not an error.
func (s *Store) Load() (map[string]string, error) {
	merged := make(map[string]string, len(defaults))
	for name, body := range defaults {
		merged[name] = body
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return merged, nil
		}
		return nil, fmt.Errorf("read prompt store: %w", err)
	}

	var user map[string]string
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("parse prompt store %s: %w", s.path, err)
	}
	for name, body := range user {
		merged[name] = body
	}
	return merged, nil
}

// Lookup returns the named template from the current mapping.
func (s *Store) Lookup(name string) (Template, error) {
	prompts, err := s.Load()
	if err != nil {
		return Template{}, err
	}
	body, ok := prompts[name]
	if !ok {
		return Template{}, &TemplateError{Name: name}
	}
	return Template{Name: name, Body: body}, nil
}

// Names returns the sorted template names currently available.
func (s *Store) Names() ([]string, error) {
	prompts, err := s.Load()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(prompts))
	for name := range prompts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Save writes or replaces one user template. Defaults are never written
// to the file; only user entries persist.
func (s *Store) Save(name, body string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("prompt name must not be empty")
	}
	user, err := s.readUser()
	if err != nil {
		return err
	}
	user[name] = body
	return s.writeUser(user)
}

// Delete removes a user template. Deleting a name that only exists as a
// built-in default is a no-op.
func (s *Store) Delete(name string) error {
	user, err := s.readUser()
	if err != nil {
		return err
	}
	delete(user, name)
	return s.writeUser(user)
}

func (s *Store) readUser() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read prompt store: %w", err)
	}
	var user map[string]string
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("parse prompt store %s: %w", s.path, err)
	}
	if user == nil {
		user = map[string]string{}
	}
	return user, nil
}

func (s *Store) writeUser(user map[string]string) error {
	data, err := json.MarshalIndent(user, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, append(data, '\n'), 0644)
}

// Compose substitutes the OCR text into the template body. Pure and
// deterministic; all non-placeholder content passes through untouched.
func Compose(tpl Template, ocrText string) string {
	return strings.ReplaceAll(tpl.Body, Placeholder, ocrText)
}
