package report

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/PlatypusInAHat/SimpleSmartContractAuditor/internal/model"
)

// Header opens every text report.
const Header = "# Smart Contract Security Analysis Report\n\n"

// Sink receives the findings of one file at a time, in scan order.
type Sink interface {
	Append(res model.ScanResult) error
}

// TextSink appends "<path>: <message>" lines to a markdown file.
type TextSink struct {
	Path string
}

// NewTextSink replaces any report at path with a fresh one holding only the header.
func NewTextSink(path string) (*TextSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("remove old report: %w", err)
	}
	if err := os.WriteFile(path, []byte(Header), 0o644); err != nil {
		return nil, fmt.Errorf("write report header: %w", err)
	}
	return &TextSink{Path: path}, nil
}

func (s *TextSink) Append(res model.ScanResult) error {
	if len(res.Findings) == 0 {
		return nil
	}
	f, err := os.OpenFile(s.Path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open report: %w", err)
	}
	w := bufio.NewWriter(f)
	for _, fd := range res.Findings {
		fmt.Fprintln(w, fd.ReportLine())
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write report: %w", err)
	}
	return f.Close()
}
