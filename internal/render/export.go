package render

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"LexAI/internal/session"
)

// Exporter writes a chat session in one format.
type Exporter interface {
	Export(s *session.Session, w io.Writer) error
	Extension() string
}

// NewExporter returns the exporter for format.
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "json":
		return &JSONExporter{}, nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: json, yaml, md)", format)
	}
}

// JSONExporter writes indented JSON.
type JSONExporter struct{}

func (e *JSONExporter) Export(s *session.Session, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

func (e *JSONExporter) Extension() string { return "json" }

// YAMLExporter writes YAML.
type YAMLExporter struct{}

func (e *YAMLExporter) Export(s *session.Session, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer func() { _ = enc.Close() }()

	return enc.Encode(s)
}

func (e *YAMLExporter) Extension() string { return "yaml" }

// MarkdownExporter writes a readable transcript.
type MarkdownExporter struct{}

func (e *MarkdownExporter) Export(s *session.Session, w io.Writer) error {
	if _, err := fmt.Fprintf(w, "# %s\n\n**Oturum:** %s  \n**Mesaj:** %d\n\n---\n\n", s.Title, s.ID, len(s.Messages)); err != nil {
		return err
	}
	for i, m := range s.Messages {
		who := "Siz"
		if m.Sender == session.SenderAssistant {
			who = "LexAI"
		}
		vote := ""
		if m.Vote != nil {
			vote = fmt.Sprintf(" (%s)", *m.Vote)
		}
		if _, err := fmt.Fprintf(w, "**%s:**%s\n\n%s\n\n", who, vote, m.Content); err != nil {
			return err
		}
		if i < len(s.Messages)-1 {
			if _, err := fmt.Fprint(w, "---\n\n"); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *MarkdownExporter) Extension() string { return "md" }
