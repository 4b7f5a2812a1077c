package ledger

import "fmt"

// DefaultPullLogFile is the APK pull log filename under the output dir.
const DefaultPullLogFile = "apk_pull_log.csv"

var pullHeader = []string{"package", "remote_path", "local_path", "content_hash"}

// PullRecord is one successful APK pull.
type PullRecord struct {
	Package     string `json:"package"`
	RemotePath  string `json:"remote_path"`
	LocalPath   string `json:"local_path"`
	ContentHash string `json:"content_hash"`
}

// PullLog is the append-only record of pulled archives.
type PullLog struct {
	log *csvLog
}

// NewPullLog returns a pull log stored at path.
func NewPullLog(path string) *PullLog {
	return &PullLog{log: newCSVLog(path, pullHeader)}
}

// Path returns the pull log file location.
func (p *PullLog) Path() string { return p.log.path }

// Append adds rec.
func (p *PullLog) Append(rec PullRecord) error {
	row := []string{rec.Package, rec.RemotePath, rec.LocalPath, rec.ContentHash}
	if err := p.log.append(row); err != nil {
		return fmt.Errorf("append pull record for %s: %w", rec.Package, err)
	}
	return nil
}

// Records returns every pull in storage order.
func (p *PullLog) Records() ([]PullRecord, error) {
	rows, err := p.log.rows()
	if err != nil {
		return nil, err
	}
	out := make([]PullRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, PullRecord{Package: row[0], RemotePath: row[1], LocalPath: row[2], ContentHash: row[3]})
	}
	return out, nil
}

// ByHash returns the pulls whose archive bytes hashed to contentHash.
func (p *PullLog) ByHash(contentHash string) ([]PullRecord, error) {
	all, err := p.Records()
	if err != nil {
		return nil, err
	}
	var out []PullRecord
	for _, r := range all {
		if r.ContentHash == contentHash {
			out = append(out, r)
		}
	}
	return out, nil
}
