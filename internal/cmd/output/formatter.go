// Package output renders command results as tables, JSON, YAML or markdown.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/mattn/go-isatty"
	md "github.com/nao1215/markdown"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Format is an output format.
type Format string

const (
	// FormatTable renders aligned text tables.
	FormatTable Format = "table"
	// FormatJSON renders indented JSON.
	FormatJSON Format = "json"
	// FormatYAML renders YAML.
	FormatYAML Format = "yaml"
	// FormatMarkdown renders GitHub flavoured markdown, suitable for CI job summaries.
	FormatMarkdown Format = "markdown"
)

// Formatter writes data in one format.
type Formatter interface {
	Format(w io.Writer, data any) error
}

// FormatterFunc allows functions to implement Formatter.
type FormatterFunc func(io.Writer, any) error

// Format implements the Formatter interface.
func (f FormatterFunc) Format(w io.Writer, data any) error {
	return f(w, data)
}

// NewFormatter returns the formatter for format. Unknown formats render tables.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: "  "}
	case FormatYAML:
		return &YAMLFormatter{}
	case FormatMarkdown:
		return &MarkdownFormatter{}
	default:
		return &TableFormatter{}
	}
}

// Align is a column alignment.
type Align int

// Column alignments.
const (
	AlignDefault Align = iota
	AlignLeft
	AlignCenter
	AlignRight
)

func (a Align) tw() tw.Align {
	switch a {
	case AlignLeft:
		return tw.AlignLeft
	case AlignCenter:
		return tw.AlignCenter
	case AlignRight:
		return tw.AlignRight
	default:
		return tw.Skip
	}
}

// Data is tabular output. Title and Footer are only rendered by the table
// and markdown formatters.
type Data struct {
	Title           string     `json:"title,omitempty" yaml:"title,omitempty"`
	Headers         []string   `json:"headers" yaml:"headers"`
	Rows            [][]string `json:"rows" yaml:"rows"`
	Footer          string     `json:"footer,omitempty" yaml:"footer,omitempty"`
	ColumnAlignment []Align    `json:"-" yaml:"-"`
}

// JSONFormatter outputs JSON.
type JSONFormatter struct {
	Indent string
}

// Format implements the Formatter interface for JSON output.
func (f *JSONFormatter) Format(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	if f.Indent != "" {
		encoder.SetIndent("", f.Indent)
	}
	return encoder.Encode(data)
}

// YAMLFormatter outputs YAML.
type YAMLFormatter struct{}

// Format outputs data in YAML format.
func (f *YAMLFormatter) Format(w io.Writer, data any) error {
	out, err := yaml.MarshalWithOptions(data, yaml.Indent(2), yaml.IndentSequence(true))
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// TableFormatter outputs text tables.
type TableFormatter struct{}

// Format outputs data in table format. Values that cannot be tabulated fall
// back to JSON.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	table, ok := toData(data)
	if !ok {
		return (&JSONFormatter{Indent: "  "}).Format(w, data)
	}
	if table.Title != "" {
		if _, err := fmt.Fprintln(w, table.Title); err != nil {
			return err
		}
	}
	if len(table.Rows) > 0 {
		if err := f.render(w, table); err != nil {
			return err
		}
	}
	if table.Footer != "" {
		if _, err := fmt.Fprintln(w, table.Footer); err != nil {
			return err
		}
	}
	return nil
}

func (f *TableFormatter) render(w io.Writer, data Data) error {
	config := tablewriter.Config{}
	if len(data.ColumnAlignment) > 0 {
		align := make([]tw.Align, len(data.ColumnAlignment))
		for i, a := range data.ColumnAlignment {
			align[i] = a.tw()
		}
		config.Header.Alignment = tw.CellAlignment{PerColumn: align}
		config.Row.Alignment = tw.CellAlignment{PerColumn: align}
	}

	table := tablewriter.NewTable(w, tablewriter.WithConfig(config))
	if len(data.Headers) > 0 {
		table.Header(cells(data.Headers)...)
	}
	for _, row := range data.Rows {
		if err := table.Append(cells(row)...); err != nil {
			return err
		}
	}
	return table.Render()
}

// MarkdownFormatter outputs markdown tables.
type MarkdownFormatter struct{}

// Format outputs data as a markdown section. Values that cannot be tabulated
// are emitted as a fenced JSON block.
func (f *MarkdownFormatter) Format(w io.Writer, data any) error {
	doc := md.NewMarkdown(w)
	table, ok := toData(data)
	if !ok {
		raw, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return err
		}
		return doc.CodeBlocks(md.SyntaxHighlight("json"), string(raw)).Build()
	}

	if table.Title != "" {
		doc.H2(table.Title).LF()
	}
	if len(table.Rows) > 0 {
		doc.Table(md.TableSet{Header: table.Headers, Rows: table.Rows}).LF()
	}
	if table.Footer != "" {
		doc.PlainText(table.Footer).LF()
	}
	return doc.Build()
}

// DetectFormat returns the explicit format when given, otherwise table for
// terminals and JSON for pipes.
func DetectFormat(explicitFormat string) Format {
	if explicitFormat != "" {
		return Format(strings.ToLower(explicitFormat))
	}
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return FormatTable
	}
	return FormatJSON
}

// ParseFormat converts s to a Format.
func ParseFormat(s string) (Format, error) {
	format := Format(strings.ToLower(s))
	switch format {
	case FormatTable, FormatJSON, FormatYAML, FormatMarkdown, "":
		return format, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("invalid format %q: must be one of: table, json, yaml, markdown", s)
	}
}

func cells(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// toData converts data into a table. Data passes through, a slice of structs
// becomes one row per element and a single struct becomes a property table.
func toData(data any) (Data, bool) {
	switch v := data.(type) {
	case Data:
		return v, true
	case *Data:
		if v == nil {
			return Data{}, false
		}
		return *v, true
	}

	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Pointer && !v.IsNil() {
		v = v.Elem()
	}
	switch {
	case v.Kind() == reflect.Slice && v.Len() > 0 && v.Index(0).Kind() == reflect.Struct:
		return structRows(v), true
	case v.Kind() == reflect.Struct:
		return properties(v), true
	}
	return Data{}, false
}

func structRows(v reflect.Value) Data {
	t := v.Index(0).Type()
	var out Data
	for i := range t.NumField() {
		if t.Field(i).IsExported() {
			out.Headers = append(out.Headers, columnName(t.Field(i)))
		}
	}
	for i := range v.Len() {
		elem := v.Index(i)
		var row []string
		for j := range t.NumField() {
			if t.Field(j).IsExported() {
				row = append(row, fmt.Sprintf("%v", elem.Field(j).Interface()))
			}
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

func properties(v reflect.Value) Data {
	t := v.Type()
	out := Data{Headers: []string{"Property", "Value"}}
	for i := range t.NumField() {
		if !t.Field(i).IsExported() {
			continue
		}
		out.Rows = append(out.Rows, []string{columnName(t.Field(i)), fmt.Sprintf("%v", v.Field(i).Interface())})
	}
	return out
}

// columnName titles the json tag of field, or falls back to the field name.
func columnName(field reflect.StructField) string {
	tag, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if tag == "" || tag == "-" {
		return field.Name
	}
	return cases.Title(language.English).String(strings.ReplaceAll(tag, "_", " "))
}
