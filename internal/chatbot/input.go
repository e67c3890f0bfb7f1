package chatbot

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
)

// LineReader yields one line of user input per call and io.EOF when the
// user is done.
type LineReader interface {
	ReadLine(prompt string) (string, error)
}

type scannerInput struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func newScannerInput(in io.Reader, out io.Writer) *scannerInput {
	return &scannerInput{scanner: bufio.NewScanner(in), out: out}
}

func (s *scannerInput) ReadLine(prompt string) (string, error) {
	fmt.Fprint(s.out, prompt)
	if s.scanner.Scan() {
		return s.scanner.Text(), nil
	}
	if err := s.scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return "", io.EOF
}

// LineEditor is a terminal LineReader with arrow-key history, persisted
// across runs.
type LineEditor struct {
	line        *liner.State
	historyFile string
}

// NewLineEditor loads history from historyFile if it exists.
func NewLineEditor(historyFile string) *LineEditor {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	e := &LineEditor{line: line, historyFile: historyFile}
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	return e
}

// ReadLine prompts and records non-empty answers in the history. Ctrl+C at
// the prompt ends input like Ctrl+D does.
func (e *LineEditor) ReadLine(prompt string) (string, error) {
	input, err := e.line.Prompt(prompt)
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", io.EOF
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		e.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves the history and restores the terminal.
func (e *LineEditor) Close() error {
	defer e.line.Close()

	if err := os.MkdirAll(filepath.Dir(e.historyFile), 0700); err != nil {
		return fmt.Errorf("failed to create history dir: %w", err)
	}
	f, err := os.OpenFile(e.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to save input history: %w", err)
	}
	defer f.Close()
	if _, err := e.line.WriteHistory(f); err != nil {
		return fmt.Errorf("failed to save input history: %w", err)
	}
	return nil
}
