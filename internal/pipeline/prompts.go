package pipeline

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

// Prompt template names.
const (
	PromptAnalysis       = "analysis.tmpl"
	PromptFlashcards     = "flashcards.tmpl"
	PromptTopicExpansion = "topic_expansion.tmpl"
	PromptVisionExtract  = "vision_extract.tmpl"
	PromptTutor          = "tutor.tmpl"
)

var promptFuncs = template.FuncMap{
	"join": strings.Join,
}

// Prompts renders the prompt templates.
type Prompts struct {
	tmpl *template.Template
}

// LoadPrompts parses the embedded templates. When dir is set, any *.tmpl
// file in it replaces the embedded template of the same name.
func LoadPrompts(dir string) (*Prompts, error) {
	tmpl, err := template.New("prompts").Funcs(promptFuncs).ParseFS(promptFS, "prompts/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse embedded prompts: %w", err)
	}

	if dir != "" {
		matches, err := filepath.Glob(filepath.Join(dir, "*.tmpl"))
		if err != nil {
			return nil, fmt.Errorf("list prompt overrides: %w", err)
		}
		for _, path := range matches {
			body, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read prompt override %s: %w", path, err)
			}
			if _, err := tmpl.New(filepath.Base(path)).Parse(string(body)); err != nil {
				return nil, fmt.Errorf("parse prompt override %s: %w", path, err)
			}
		}
	}

	return &Prompts{tmpl: tmpl}, nil
}

// MustLoadPrompts is LoadPrompts for the embedded templates only.
func MustLoadPrompts() *Prompts {
	p, err := LoadPrompts("")
	if err != nil {
		panic(err)
	}
	return p
}

// Render executes the named template with data.
func (p *Prompts) Render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// AnalysisPromptData feeds PromptAnalysis.
type AnalysisPromptData struct {
	Text     string
	Concepts []string
}

// FlashcardPromptData feeds PromptFlashcards.
type FlashcardPromptData struct {
	Count              int
	Difficulty         string
	Subject            string
	KeyTopics          []string
	LearningObjectives []string
	FocusAreas         []string
	Avoid              []string
	Context            []string
	Text               string
}

// TopicPromptData feeds PromptTopicExpansion.
type TopicPromptData struct {
	Topic string
}

// VisionPromptData feeds PromptVisionExtract.
type VisionPromptData struct {
	Filename string
}

// TutorPromptData feeds PromptTutor.
type TutorPromptData struct {
	Question string
	Subject  string
	Context  string
}
