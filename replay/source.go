package replay

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"os"

	"github.com/sirupsen/logrus"
)

// syntheticEnd is substituted for the whole source when the replay file
// is missing, unreadable or malformed, degrading the session to a
// zero-length replay.
const syntheticEnd = `{"action":"gameEnd","time":0}`

// sourceRecord mirrors the envelope fields of one replay line. The rest
// of each line is opaque payload for the logic engine.
type sourceRecord struct {
	Time   int64  `json:"time"`
	Action string `json:"action"`
}

// LoadSource reads a gzip-compressed, newline-delimited replay file into
// a fresh PendingQueue. The second return is the tick of the terminal
// gameEnd record, i.e. the session's total tick count.
//
// Any corruption (missing file, bad gzip stream, malformed JSON line) is
// logged at error level and answered with a queue holding a single
// synthetic terminal record at tick 0.
func LoadSource(path string) (*PendingQueue, int64) {
	f, err := os.Open(path)
	if err != nil {
		return corruptedSource(path, err)
	}
	defer func() { _ = f.Close() }()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return corruptedSource(path, err)
	}
	defer func() { _ = zr.Close() }()

	q := &PendingQueue{}
	var total int64
	scanner := bufio.NewScanner(zr)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		var rec sourceRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return corruptedSource(path, err)
		}
		kind := KindInstruction
		if rec.Action == NameGameEnd {
			kind = KindGameEnd
			total = rec.Time
		}
		q.Enqueue(PendingAction{Tick: rec.Time, Action: NewRecordAction(line, rec.Action, kind)})
	}
	if err := scanner.Err(); err != nil {
		return corruptedSource(path, err)
	}
	return q, total
}

func corruptedSource(path string, err error) (*PendingQueue, int64) {
	logrus.Errorf("corrupted replay file %s: %v", path, err)
	q := &PendingQueue{}
	q.Enqueue(PendingAction{Tick: 0, Action: NewRecordAction(syntheticEnd, NameGameEnd, KindGameEnd)})
	return q, 0
}
