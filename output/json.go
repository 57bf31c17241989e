package output

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/TOTskillconnect/tikscrap/parser"
)

func (w *Writer) writeJSON(videos []parser.Video, now time.Time) (string, error) {
	path := w.filename("json", now)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create json output: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(videos); err != nil {
		return "", fmt.Errorf("encode json output: %w", err)
	}
	return path, nil
}
