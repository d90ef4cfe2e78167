package extraction

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strings"
)

// StructuredExtractAdapter implements StrategyStructuredExtract: it parses
// JSON, CSV, or XML into a flat text rendering for full-text indexing, plus
// metadata: the parsed value for JSON, header-keyed rows for CSV, and only
// the root tag name for XML.
type StructuredExtractAdapter struct{}

func (StructuredExtractAdapter) Strategy() Strategy { return StrategyStructuredExtract }

func (StructuredExtractAdapter) ExactFilenames() []string { return nil }
func (StructuredExtractAdapter) MimePrefixes() []string {
	return []string{"application/json", "text/csv", "application/xml", "text/xml"}
}
func (StructuredExtractAdapter) Extensions() []string { return []string{".json", ".csv", ".xml"} }

func (StructuredExtractAdapter) MatchesMagic(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return bytes.HasPrefix(trimmed, []byte("{")) || bytes.HasPrefix(trimmed, []byte("["))
}

func (a StructuredExtractAdapter) Extract(ctx context.Context, in Input) (Result, error) {
	switch extensionOf(in.Filename) {
	case ".csv":
		return a.extractCSV(in.Bytes)
	case ".xml":
		return a.extractXML(in.Bytes)
	default:
		return a.extractJSON(in.Bytes)
	}
}

func (a StructuredExtractAdapter) extractJSON(data []byte) (Result, error) {
	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return Result{}, fmt.Errorf("parse json: %w", err)
	}
	return Result{
		ExtractedText: flattenJSONText(parsed, &strings.Builder{}).String(),
		Metadata: map[string]any{
			"format": "json",
			"value":  parsed,
		},
	}, nil
}

func flattenJSONText(v any, sb *strings.Builder) *strings.Builder {
	switch val := v.(type) {
	case string:
		sb.WriteString(val)
		sb.WriteByte('\n')
	case map[string]any:
		for _, child := range val {
			flattenJSONText(child, sb)
		}
	case []any:
		for _, child := range val {
			flattenJSONText(child, sb)
		}
	}
	return sb
}

func (a StructuredExtractAdapter) extractCSV(data []byte) (Result, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return Result{}, fmt.Errorf("parse csv: %w", err)
	}

	var text strings.Builder
	var rows []map[string]string
	if len(records) > 0 {
		header := records[0]
		for _, record := range records[1:] {
			row := make(map[string]string, len(header))
			for i, col := range header {
				if i < len(record) {
					row[col] = record[i]
				}
			}
			rows = append(rows, row)
		}
		for _, record := range records {
			text.WriteString(strings.Join(record, " "))
			text.WriteByte('\n')
		}
	}

	return Result{
		ExtractedText: text.String(),
		Metadata: map[string]any{
			"format":     "csv",
			"row_count":  len(rows),
			"rows":       rows,
		},
	}, nil
}

// xmlElement is a generic recursive XML node, used to flatten arbitrary XML
// documents into text without requiring a schema.
type xmlElement struct {
	XMLName  xml.Name
	Attrs    []xml.Attr   `xml:",any,attr"`
	Content  string       `xml:",chardata"`
	Children []xmlElement `xml:",any"`
}

func (a StructuredExtractAdapter) extractXML(data []byte) (Result, error) {
	var root xmlElement
	if err := xml.Unmarshal(data, &root); err != nil {
		return Result{}, fmt.Errorf("parse xml: %w", err)
	}

	var text strings.Builder
	flattenXMLText(root, &text)

	return Result{
		ExtractedText: strings.TrimSpace(text.String()),
		Metadata: map[string]any{
			"format":   "xml",
			"root_tag": root.XMLName.Local,
		},
	}, nil
}

func flattenXMLText(el xmlElement, sb *strings.Builder) {
	if trimmed := strings.TrimSpace(el.Content); trimmed != "" {
		sb.WriteString(trimmed)
		sb.WriteByte('\n')
	}
	for _, child := range el.Children {
		flattenXMLText(child, sb)
	}
}
