// Package metadata derives per-session display metadata by merging the
// head of each session's append-only log, the per-project sidecar index,
// and team config fallbacks, behind a TTL cache.
package metadata

import (
	"io"
	"os"
	"time"

	"github.com/tidwall/gjson"

	"github.com/matt-grain/claude-code-kanban/internal/adapters/jsonl"
)

// logHeadWindow bounds how much of a session log is ever read. Logs are
// unbounded append-only files; the fields of interest only appear in the
// first few records.
const logHeadWindow = 64 * 1024

// maxLogLineBytes caps a single log record. Oversized records (large
// pasted content, embedded images) are skipped, not parsed.
const maxLogLineBytes = 32 * 1024

// logHead holds the fields extracted from the head of a session log.
type logHead struct {
	CustomTitle string
	Slug        string
	Cwd         string
	GitBranch   string
	Summary     string
	CreatedAt   time.Time
}

// complete reports whether every sought field has been found, allowing
// the scan to stop before the window is exhausted.
func (h *logHead) complete() bool {
	return h.CustomTitle != "" && h.Slug != "" && h.Cwd != "" &&
		h.GitBranch != "" && h.Summary != "" && !h.CreatedAt.IsZero()
}

// scanLogHead reads at most logHeadWindow bytes of the JSONL log at
// path and pulls out the first occurrence of each metadata field.
// Unparseable lines are skipped; a partially-filled result is fine.
func scanLogHead(path string) (logHead, error) {
	var head logHead

	f, err := os.Open(path)
	if err != nil {
		return head, err
	}
	defer func() { _ = f.Close() }()

	reader := jsonl.NewReader(io.LimitReader(f, logHeadWindow), maxLogLineBytes)

	for {
		next, err := reader.Next()
		if err != nil {
			break
		}
		line := next.Data
		if next.TooLong || len(line) == 0 || !gjson.ValidBytes(line) {
			continue
		}

		if head.CustomTitle == "" {
			head.CustomTitle = gjson.GetBytes(line, "customTitle").String()
		}
		if head.Slug == "" {
			head.Slug = gjson.GetBytes(line, "slug").String()
		}
		if head.Cwd == "" {
			head.Cwd = gjson.GetBytes(line, "cwd").String()
		}
		if head.GitBranch == "" {
			head.GitBranch = gjson.GetBytes(line, "gitBranch").String()
		}
		if head.CreatedAt.IsZero() {
			if ts := gjson.GetBytes(line, "timestamp").String(); ts != "" {
				if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
					head.CreatedAt = t
				}
			}
		}
		if head.Summary == "" && gjson.GetBytes(line, "type").String() == "user" {
			if content := gjson.GetBytes(line, "message.content"); content.Type == gjson.String {
				head.Summary = content.String()
			}
		}

		if head.complete() {
			break
		}
	}

	// Whatever was found before the window (or an oversized record)
	// ended the scan is kept; a partially-filled head is fine.
	return head, nil
}
