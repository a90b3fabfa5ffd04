package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// AnswerFile writes one answer file per run under Dir, named by the
// run's timestamp.
type AnswerFile struct {
	Dir string
}

func NewAnswerFile(dir string) *AnswerFile { return &AnswerFile{Dir: dir} }

func (f *AnswerFile) Name() string { return "file" }

func (f *AnswerFile) Configured() bool { return f.Dir != "" }

func (f *AnswerFile) Deliver(ctx context.Context, p Payload) error {
	if err := os.MkdirAll(f.Dir, 0755); err != nil {
		return fmt.Errorf("create answer dir: %w", err)
	}

	path := filepath.Join(f.Dir, fmt.Sprintf("result_%s.txt", p.Timestamp.Format("20060102_150405")))
	content := fmt.Sprintf("=== %s | %s | %s | %s ===\n--- OCR ---\n%s\n--- ANSWER ---\n%s\n",
		p.Timestamp.Format("2006-01-02 15:04:05"), p.Provider, p.Model, p.Template, p.Question, p.Answer)

	return os.WriteFile(path, []byte(content), 0644)
}
