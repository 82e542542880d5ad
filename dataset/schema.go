// ABOUTME: Column-level dataset documentation used to build the planner's schema context.
// ABOUTME: Loads schema YAML files, infers schemas from tables, and renders the prompt block.
package dataset

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ColumnKind classifies how a column's values were produced.
type ColumnKind string

const (
	KindOpenText     ColumnKind = "open_text"     // free-form responses
	KindSelectedText ColumnKind = "selected_text" // responses from a fixed set
	KindNumeric      ColumnKind = "numeric"
)

// ColumnDoc documents one dataset column for the planner.
type ColumnDoc struct {
	Name        string     `yaml:"name"`
	Samples     []string   `yaml:"samples,omitempty"`
	UniqueCount int        `yaml:"unique_count"`
	Kind        ColumnKind `yaml:"kind"`
	DType       string     `yaml:"dtype,omitempty"`
}

// Schema documents a dataset: its file name as the execution backend sees
// it, plus per-column documentation in column order.
type Schema struct {
	FileName string      `yaml:"file_name"`
	Columns  []ColumnDoc `yaml:"columns"`
}

// LoadSchema reads a schema YAML file from disk.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}

	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing schema YAML: %w", err)
	}
	if len(s.Columns) == 0 {
		return nil, fmt.Errorf("schema %q documents no columns", path)
	}
	return &s, nil
}

// InferSchema builds a minimal Schema from a loaded Table: column names,
// up to sampleLimit sample values, and unique counts. Kind detection is
// heuristic (all-numeric values => numeric, small unique set => selected).
func InferSchema(t *Table, fileName string, sampleLimit int) *Schema {
	if sampleLimit <= 0 {
		sampleLimit = 5
	}

	s := &Schema{FileName: fileName}
	for _, name := range t.Headers() {
		values, _ := t.Column(name)
		doc := ColumnDoc{
			Name:        name,
			UniqueCount: t.UniqueCount(name),
			Kind:        classifyColumn(values, t.UniqueCount(name)),
			DType:       "object (str)",
		}
		if doc.Kind == KindNumeric {
			doc.DType = numericDType(values)
		}
		for i := 0; i < len(values) && i < sampleLimit; i++ {
			doc.Samples = append(doc.Samples, values[i])
		}
		s.Columns = append(s.Columns, doc)
	}
	return s
}

func classifyColumn(values []string, uniqueCount int) ColumnKind {
	if len(values) == 0 {
		return KindOpenText
	}
	numeric := true
	for _, v := range values {
		if !isNumeric(strings.TrimSpace(v)) {
			numeric = false
			break
		}
	}
	if numeric {
		return KindNumeric
	}
	// A small fixed set of answers relative to the response count indicates
	// a selected-choice question.
	if uniqueCount > 0 && uniqueCount <= 10 && len(values) > uniqueCount*3 {
		return KindSelectedText
	}
	return KindOpenText
}

// isNumeric accepts an optional sign, digits, and at most one decimal
// point. Survey exports carry ratings like "20.5" and deltas like "-3".
func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '+' || s[0] == '-' {
		s = s[1:]
	}

	digits := false
	dot := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits = true
		case r == '.':
			if dot {
				return false
			}
			dot = true
		default:
			return false
		}
	}
	return digits
}

// numericDType reports whether a numeric column holds only whole numbers
// or needs a floating-point dtype.
func numericDType(values []string) string {
	for _, v := range values {
		if strings.ContainsRune(v, '.') {
			return "float64"
		}
	}
	return "int64"
}

// PromptContext renders the schema as the markdown block embedded in the
// planner's system instruction: one zero-indexed section per column with
// name, samples, unique count, kind, and dtype.
func (s *Schema) PromptContext() string {
	var b strings.Builder

	b.WriteString("Below is the zero-indexed list of columns from the dataset. For each column we list:\n")
	b.WriteString("- Column Name (exactly as in the CSV header, in quotations)\n")
	b.WriteString("- Sample Responses\n")
	b.WriteString("- Unique Values Count\n")
	b.WriteString("- Type (Open-ended text, Selected text, or numeric)\n")
	b.WriteString("- DType\n")

	for i, col := range s.Columns {
		b.WriteString("\n---\n\n")
		fmt.Fprintf(&b, "**%d**\n", i)
		fmt.Fprintf(&b, "- **Column Name:** %q\n", col.Name)
		if len(col.Samples) > 0 {
			quoted := make([]string, len(col.Samples))
			for j, sample := range col.Samples {
				quoted[j] = fmt.Sprintf("%q", sample)
			}
			fmt.Fprintf(&b, "- **Sample Responses:** %s\n", strings.Join(quoted, ", "))
		}
		fmt.Fprintf(&b, "- **Unique Values Count:** %d\n", col.UniqueCount)
		fmt.Fprintf(&b, "- **Type:** %s\n", kindLabel(col.Kind))
		if col.DType != "" {
			fmt.Fprintf(&b, "- **DType:** %s\n", col.DType)
		}
	}

	return b.String()
}

func kindLabel(k ColumnKind) string {
	switch k {
	case KindNumeric:
		return "Numeric"
	case KindSelectedText:
		return "Selected text (responses come from a fixed set)"
	case KindOpenText:
		return "Open-ended text"
	default:
		return string(k)
	}
}
