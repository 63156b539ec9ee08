package uitree

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Component describes a node type the builder accepts.
type Component struct {
	Name string
	// Root marks components allowed at the top of a tree.
	Root bool
	// Container marks components that may hold children.
	Container bool
	// Children restricts child types when non-empty.
	Children []string
	// Required lists props that must be present and non-null.
	Required []string
}

// Registry holds the known component catalog. The zero value is empty.
type Registry struct {
	mu         sync.RWMutex
	components map[string]Component
}

// NewRegistry constructs a registry with the built-in widget components
// registered.
func NewRegistry() *Registry {
	reg := &Registry{}
	reg.registerBuiltins()
	return reg
}

// Register adds a component. Names are unique; registering a name twice is an
// error.
func (r *Registry) Register(component Component) error {
	if r == nil {
		return fmt.Errorf("uitree: registry is nil")
	}
	name := strings.TrimSpace(component.Name)
	if name == "" {
		return fmt.Errorf("uitree: component name is required")
	}
	component.Name = name

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.components == nil {
		r.components = make(map[string]Component)
	}
	if _, exists := r.components[name]; exists {
		return fmt.Errorf("uitree: component %q already registered", name)
	}
	component.Children = append([]string(nil), component.Children...)
	component.Required = append([]string(nil), component.Required...)
	r.components[name] = component
	return nil
}

// Lookup returns the component registered under name.
func (r *Registry) Lookup(name string) (Component, bool) {
	if r == nil {
		return Component{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	component, ok := r.components[name]
	return component, ok
}

// Names lists registered component names in lexical order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.components))
	for name := range r.components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Built-in component identifiers.
const (
	ComponentCard         = "Card"
	ComponentListView     = "ListView"
	ComponentListViewItem = "ListViewItem"
	ComponentBasic        = "Basic"
	ComponentBox          = "Box"
	ComponentRow          = "Row"
	ComponentCol          = "Col"
	ComponentForm         = "Form"
	ComponentTransition   = "Transition"
	ComponentText         = "Text"
	ComponentTitle        = "Title"
	ComponentCaption      = "Caption"
	ComponentMarkdown     = "Markdown"
	ComponentBadge        = "Badge"
	ComponentButton       = "Button"
	ComponentImage        = "Image"
	ComponentIcon         = "Icon"
	ComponentDivider      = "Divider"
	ComponentSpacer       = "Spacer"
	ComponentChart        = "Chart"
	ComponentCheckbox     = "Checkbox"
	ComponentDatePicker   = "DatePicker"
	ComponentInput        = "Input"
	ComponentLabel        = "Label"
	ComponentRadioGroup   = "RadioGroup"
	ComponentSelect       = "Select"
	ComponentTextarea     = "Textarea"
)

func (r *Registry) registerBuiltins() {
	builtins := []Component{
		{Name: ComponentCard, Root: true, Container: true},
		{Name: ComponentListView, Root: true, Container: true, Children: []string{ComponentListViewItem}},
		{Name: ComponentBasic, Root: true, Container: true},
		{Name: ComponentListViewItem, Container: true},
		{Name: ComponentBox, Container: true},
		{Name: ComponentRow, Container: true},
		{Name: ComponentCol, Container: true},
		{Name: ComponentForm, Container: true},
		{Name: ComponentTransition, Container: true},
		{Name: ComponentText, Required: []string{"value"}},
		{Name: ComponentTitle, Required: []string{"value"}},
		{Name: ComponentCaption, Required: []string{"value"}},
		{Name: ComponentMarkdown, Required: []string{"value"}},
		{Name: ComponentBadge, Required: []string{"label"}},
		{Name: ComponentButton},
		{Name: ComponentImage, Required: []string{"src"}},
		{Name: ComponentIcon, Required: []string{"name"}},
		{Name: ComponentDivider},
		{Name: ComponentSpacer},
		{Name: ComponentChart, Required: []string{"data", "series"}},
		{Name: ComponentCheckbox, Required: []string{"name"}},
		{Name: ComponentDatePicker, Required: []string{"name"}},
		{Name: ComponentInput, Required: []string{"name"}},
		{Name: ComponentLabel, Required: []string{"value"}},
		{Name: ComponentRadioGroup, Required: []string{"name"}},
		{Name: ComponentSelect, Required: []string{"name", "options"}},
		{Name: ComponentTextarea, Required: []string{"name"}},
	}
	for _, component := range builtins {
		_ = r.Register(component)
	}
}
