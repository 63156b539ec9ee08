package prompt_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-widgetmcp/pkg/model"
	"github.com/goliatone/go-widgetmcp/pkg/prompt"
)

const eventSchema = `{
	"type": "object",
	"title": "Create Event",
	"required": ["title", "attendees"],
	"properties": {
		"title": {"type": "string"},
		"attendees": {"type": "integer", "minimum": 1},
		"level": {"type": "string", "enum": ["low", "high"]},
		"public": {"type": "boolean"},
		"tags": {"type": "array", "items": {"type": "string"}},
		"venue": {
			"type": "object",
			"required": ["city"],
			"properties": {
				"city": {"type": "string"},
				"capacity": {"type": "integer"}
			}
		}
	}
}`

type stubDriver struct {
	inputs    []string
	selects   []int
	confirms  []bool
	textAreas []string
	infos     []string
	messages  []string
	err       error
}

func (s *stubDriver) Input(_ context.Context, cfg prompt.InputConfig) (string, error) {
	s.messages = append(s.messages, cfg.Message)
	if s.err != nil {
		return "", s.err
	}
	if len(s.inputs) == 0 {
		return "", errors.New("no input scripted")
	}
	val := s.inputs[0]
	s.inputs = s.inputs[1:]
	if cfg.Validator != nil {
		if err := cfg.Validator(val); err != nil {
			return "", err
		}
	}
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, cfg prompt.ConfirmConfig) (bool, error) {
	s.messages = append(s.messages, cfg.Message)
	if len(s.confirms) == 0 {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirms[0]
	s.confirms = s.confirms[1:]
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, cfg prompt.SelectConfig) (int, error) {
	s.messages = append(s.messages, cfg.Message)
	if len(s.selects) == 0 {
		return -1, errors.New("no select scripted")
	}
	val := s.selects[0]
	s.selects = s.selects[1:]
	return val, nil
}

func (s *stubDriver) TextArea(_ context.Context, cfg prompt.TextAreaConfig) (string, error) {
	s.messages = append(s.messages, cfg.Message)
	if len(s.textAreas) == 0 {
		return "", errors.New("no text area scripted")
	}
	val := s.textAreas[0]
	s.textAreas = s.textAreas[1:]
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infos = append(s.infos, msg)
	return nil
}

func compile(t *testing.T) *model.Model {
	t.Helper()
	var schema map[string]any
	if err := json.Unmarshal([]byte(eventSchema), &schema); err != nil {
		t.Fatalf("decode schema: %v", err)
	}
	m, err := model.NewCompiler().Compile(schema, "CreateEventModel")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return m
}

func TestCollect_WalksEveryField(t *testing.T) {
	m := compile(t)
	driver := &stubDriver{
		inputs:    []string{"12", "Launch", "", "Lisbon"},
		selects:   []int{1},
		confirms:  []bool{true, true},
		textAreas: []string{`["work"]`},
	}

	got, err := prompt.New(prompt.WithDriver(driver)).Collect(context.Background(), m)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	want := map[string]any{
		"attendees": json.Number("12"),
		"level":     "high",
		"public":    true,
		"tags":      []any{"work"},
		"title":     "Launch",
		"venue":     map[string]any{"city": "Lisbon"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("collected arguments mismatch (-want +got):\n%s", diff)
	}
	if _, err := m.Validate(got); err != nil {
		t.Fatalf("collected arguments should validate: %v", err)
	}
	if len(driver.infos) != 1 || driver.infos[0] != "Arguments for Create Event" {
		t.Fatalf("unexpected info messages: %v", driver.infos)
	}
	if !containsMessage(driver.messages, "(venue.city)") {
		t.Fatalf("nested prompts should show their path, got %v", driver.messages)
	}
}

func TestCollect_SkipsOptionalValues(t *testing.T) {
	m := compile(t)
	driver := &stubDriver{
		inputs:    []string{"3", "Quiet"},
		selects:   []int{2}, // (skip)
		confirms:  []bool{false, false},
		textAreas: []string{""},
	}

	got, err := prompt.New(prompt.WithDriver(driver)).Collect(context.Background(), m)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	want := map[string]any{
		"attendees": json.Number("3"),
		"public":    false,
		"title":     "Quiet",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("collected arguments mismatch (-want +got):\n%s", diff)
	}
}

func TestCollect_RetriesInvalidJSON(t *testing.T) {
	m := compile(t)
	driver := &stubDriver{
		inputs:    []string{"3", "Quiet"},
		selects:   []int{0},
		confirms:  []bool{true, false},
		textAreas: []string{`["a"`, `["a", "b"]`},
	}

	got, err := prompt.New(prompt.WithDriver(driver)).Collect(context.Background(), m)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if diff := cmp.Diff([]any{"a", "b"}, got["tags"]); diff != "" {
		t.Fatalf("tags mismatch (-want +got):\n%s", diff)
	}
	if len(driver.infos) != 2 || !strings.HasPrefix(driver.infos[1], "tags: invalid JSON") {
		t.Fatalf("expected a retry notice for tags, got %v", driver.infos)
	}
}

func TestCollect_RejectsNonIntegerInput(t *testing.T) {
	m := compile(t)
	driver := &stubDriver{inputs: []string{"twelve"}}

	_, err := prompt.New(prompt.WithDriver(driver)).Collect(context.Background(), m)
	if err == nil || err.Error() != "expected an integer" {
		t.Fatalf("expected integer validation error, got %v", err)
	}
}

func TestCollect_PropagatesAbort(t *testing.T) {
	m := compile(t)
	driver := &stubDriver{err: prompt.ErrAborted}

	_, err := prompt.New(prompt.WithDriver(driver)).Collect(context.Background(), m)
	if !errors.Is(err, prompt.ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}

func containsMessage(messages []string, fragment string) bool {
	for _, msg := range messages {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}
