package response

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/haiintel/dashboard/internal/model/chat"
)

var (
	ErrEmptyTable        = errors.New("response table is empty")
	ErrUnsupportedFormat = errors.New("unsupported response file format")
)

// Table is the immutable canned response table, loaded once at startup.
type Table struct {
	items []chat.Response
}

// NewTable validates items and returns a Table holding a private copy.
func NewTable(items []chat.Response) (*Table, error) {
	if err := Validate(items); err != nil {
		return nil, err
	}
	copied := make([]chat.Response, len(items))
	for i, item := range items {
		copied[i] = cloneResponse(item)
	}
	return &Table{items: copied}, nil
}

// MustDefault returns the table built from Seed.
func MustDefault() *Table {
	t, err := NewTable(Seed())
	if err != nil {
		panic(err)
	}
	return t
}

// List returns the responses in table order.
func (t *Table) List() []chat.Response {
	out := make([]chat.Response, len(t.items))
	for i, item := range t.items {
		out[i] = cloneResponse(item)
	}
	return out
}

// Len reports the number of responses.
func (t *Table) Len() int {
	return len(t.items)
}

// At returns the i-th response.
func (t *Table) At(i int) chat.Response {
	return cloneResponse(t.items[i])
}

// Validate checks that the table can always produce a reply.
func Validate(items []chat.Response) error {
	if len(items) == 0 {
		return ErrEmptyTable
	}
	for i, item := range items {
		if strings.TrimSpace(item.Prompt) == "" {
			return fmt.Errorf("response %d: prompt is required", i)
		}
		if item.Prompt != strings.ToLower(item.Prompt) {
			return fmt.Errorf("response %d: prompt %q must be lowercase", i, item.Prompt)
		}
		if item.Reply == "" {
			return fmt.Errorf("response %d: reply is required", i)
		}
	}
	return nil
}

type fileTable struct {
	Responses []chat.Response `yaml:"responses" toml:"responses"`
}

// LoadFile reads a response table from a YAML (.yaml/.yml) or TOML (.toml) file.
func LoadFile(path string) (*Table, error) {
	var ft fileTable

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read response file: %w", err)
		}
		if err := yaml.Unmarshal(data, &ft); err != nil {
			return nil, fmt.Errorf("parse response file %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.DecodeFile(path, &ft); err != nil {
			return nil, fmt.Errorf("parse response file %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	return NewTable(ft.Responses)
}

func cloneResponse(r chat.Response) chat.Response {
	if r.Suggestions != nil {
		r.Suggestions = append([]string(nil), r.Suggestions...)
	}
	return r
}
