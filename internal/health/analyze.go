package health

import (
	"encoding/json"
	"time"

	"github.com/ork-ai/orkhooks/internal/logging"
	"github.com/ork-ai/orkhooks/internal/store"
)

// FileReport describes one JSONL store file.
type FileReport struct {
	Name         string    `json:"name"`
	Exists       bool      `json:"exists"`
	Lines        int       `json:"lines"`
	CorruptLines int       `json:"corruptLines"`
	SizeBytes    int64     `json:"sizeBytes"`
	ModTime      time.Time `json:"modTime"`
}

// AnalyzeFile reports existence, line count, corrupt-line count, size, and
// modification time for one store file. An absent file reports Exists
// false with zero counters; it is never an error.
func AnalyzeFile(st *store.Store, name string) FileReport {
	rep := FileReport{Name: name}

	info, err := st.Stat(name)
	if err != nil {
		return rep
	}
	rep.Exists = true
	rep.SizeBytes = info.Size()
	rep.ModTime = info.ModTime()

	err = st.ScanLines(name, func(line []byte) error {
		rep.Lines++
		if !json.Valid(line) {
			rep.CorruptLines++
		}
		return nil
	})
	if err != nil && err != store.ErrNotFound {
		// An oversized or truncated tail stops the scanner; count what
		// stopped it as one more corrupt line and keep the partial counts.
		rep.CorruptLines++
		logging.Debug().Err(err).Str("file", name).Msg("Store scan stopped early")
	}
	return rep
}
