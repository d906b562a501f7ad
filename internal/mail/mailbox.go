// Package mail is the cross-process notification log. Background watchers
// drop a line here when something in their session needs a human (a turn
// finished, a confirmation is pending, a rate limit hit); the interactive
// CLI surfaces unread messages on its next run.
//
// The file is append-only JSONL. Each Append is a single O_APPEND write,
// which the kernel keeps intact for writes of this size, so concurrent
// writers never interleave mid-line and readers need no lock. Only GC
// rewrites the file, and it does so under an advisory lock with an atomic
// rename so readers never observe a half-compacted file.
package mail

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/groblegark/seance/internal/util"
)

// Message is one notification.
type Message struct {
	Time    time.Time `json:"time"`
	Session string    `json:"session"`
	Kind    string    `json:"kind"`
	Text    string    `json:"text"`
}

// Message kinds.
const (
	KindResponse  = "response"
	KindConfirm   = "confirm"
	KindRateLimit = "rate-limit"
	KindError     = "error"
)

// Box is a handle on one mailbox file.
type Box struct {
	path string
}

// DefaultPath is the shared mailbox under the user's seance directory.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating mailbox: %w", err)
	}
	return filepath.Join(home, ".seance", "mail.jsonl"), nil
}

// Open returns a Box for path, creating parent directories as needed.
func Open(path string) (*Box, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating mailbox dir: %w", err)
	}
	return &Box{path: path}, nil
}

// Append writes one message. The whole line goes down in one write call.
func (b *Box) Append(m Message) error {
	if m.Time.IsZero() {
		m.Time = time.Now()
	}
	line, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}
	f, err := os.OpenFile(b.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening mailbox: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("appending message: %w", err)
	}
	return nil
}

// ReadSince returns messages appended after byte offset, plus the offset to
// pass next time. A missing file means no messages, not an error. An
// unterminated trailing line is left for the next read; unparseable
// complete lines are skipped but still advance the offset.
func (b *Box) ReadSince(offset int64) ([]Message, int64, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, nil
		}
		return nil, offset, fmt.Errorf("reading mailbox: %w", err)
	}
	if offset > int64(len(data)) {
		// GC shrank the file since the caller's last read.
		offset = 0
	}
	chunk := data[offset:]

	end := bytes.LastIndexByte(chunk, '\n')
	if end == -1 {
		return nil, offset, nil
	}
	next := offset + int64(end) + 1

	var msgs []Message
	for _, line := range bytes.Split(chunk[:end], []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var m Message
		if err := json.Unmarshal(line, &m); err != nil {
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, next, nil
}

// ReadAll returns every message in the box.
func (b *Box) ReadAll() ([]Message, error) {
	msgs, _, err := b.ReadSince(0)
	return msgs, err
}

// GC drops messages older than retain. It holds the box's advisory lock so
// two GCs never race each other, and replaces the file with an atomic
// rename so appends and reads see either the old file or the new one.
// Returns the number of messages removed.
func (b *Box) GC(retain time.Duration) (int, error) {
	fl := flock.New(b.path + ".gc")
	locked, err := fl.TryLock()
	if err != nil {
		return 0, fmt.Errorf("locking mailbox gc: %w", err)
	}
	if !locked {
		return 0, nil // another process is already compacting
	}
	defer fl.Unlock()

	msgs, err := b.ReadAll()
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-retain)
	var buf bytes.Buffer
	kept := 0
	for _, m := range msgs {
		if m.Time.Before(cutoff) {
			continue
		}
		line, err := json.Marshal(m)
		if err != nil {
			continue
		}
		buf.Write(line)
		buf.WriteByte('\n')
		kept++
	}
	removed := len(msgs) - kept
	if removed == 0 {
		return 0, nil
	}
	if err := util.AtomicWriteFile(b.path, buf.Bytes(), 0o644); err != nil {
		return 0, fmt.Errorf("compacting mailbox: %w", err)
	}
	return removed, nil
}
