// Package sessionid encodes and decodes the session-name grammar:
//
//	{tool}-{partner|archangel-<name>}-{uuid}[-p<hash8>|-yolo]
//
// The name is the only durable identity a session has; everything else is
// re-derived from the live pane. The permission suffix is part of the name
// on purpose: two invocations asking for the same tool with the same
// allow-list must land on the same session, and the hash makes allow-lists
// order-insensitive.
package sessionid

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Kind distinguishes ad hoc interactive sessions from named recurring
// background sessions owned by the watcher.
type Kind string

const (
	KindPartner   Kind = "partner"
	KindArchangel Kind = "archangel"
)

// Mode is the permission mode encoded in the name suffix.
type Mode string

const (
	// ModeDefault auto-approves only the fixed read-only allow-list.
	ModeDefault Mode = "default"

	// ModeAllow auto-approves a custom allow-list, identified by hash.
	ModeAllow Mode = "allow"

	// ModeYolo bypasses all confirmations via the backend's launch flag.
	ModeYolo Mode = "yolo"
)

// ErrNotSessionName reports a string that doesn't parse as a session name.
var ErrNotSessionName = errors.New("not a session name")

// AmbiguousError is returned when a partial identifier matches more than
// one live session. Resolution never picks silently.
type AmbiguousError struct {
	Input      string
	Candidates []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous session %q matches %d sessions: %s",
		e.Input, len(e.Candidates), strings.Join(e.Candidates, ", "))
}

// Identity is a decoded session name.
type Identity struct {
	Tool string
	Kind Kind
	Name string // archangel name; empty for partner sessions
	UUID string
	Mode Mode
	Hash string // allow-list hash; set only when Mode is ModeAllow
}

// NewPartner mints an identity for an ad hoc session in default mode.
func NewPartner(tool string) Identity {
	return Identity{Tool: tool, Kind: KindPartner, UUID: uuid.NewString(), Mode: ModeDefault}
}

// NewArchangel mints an identity for a named background session.
func NewArchangel(tool, name string) Identity {
	return Identity{Tool: tool, Kind: KindArchangel, Name: name, UUID: uuid.NewString(), Mode: ModeDefault}
}

// WithYolo returns a copy in yolo mode.
func (id Identity) WithYolo() Identity {
	id.Mode = ModeYolo
	id.Hash = ""
	return id
}

// WithAllowList returns a copy in custom-allow mode, hashing the list.
func (id Identity) WithAllowList(tools []string) Identity {
	id.Mode = ModeAllow
	id.Hash = AllowHash(tools)
	return id
}

// WithNewUUID returns a copy with a fresh UUID. Used after a conversation
// reset: the backend starts a new log, the pane and permission mode stay.
func (id Identity) WithNewUUID() Identity {
	id.UUID = uuid.NewString()
	return id
}

// String encodes the identity back into a session name.
func (id Identity) String() string {
	var b strings.Builder
	b.WriteString(id.Tool)
	b.WriteByte('-')
	if id.Kind == KindArchangel {
		b.WriteString("archangel-")
		b.WriteString(id.Name)
	} else {
		b.WriteString("partner")
	}
	b.WriteByte('-')
	b.WriteString(id.UUID)
	switch id.Mode {
	case ModeYolo:
		b.WriteString("-yolo")
	case ModeAllow:
		b.WriteString("-p")
		b.WriteString(id.Hash)
	}
	return b.String()
}

// AllowHash digests an allow-list into the 8-hex-char name token.
// Tokens are trimmed, empties dropped, and the rest sorted before hashing,
// so semantically identical lists always hash the same.
func AllowHash(tools []string) string {
	norm := make([]string, 0, len(tools))
	for _, t := range tools {
		if t = strings.TrimSpace(t); t != "" {
			norm = append(norm, t)
		}
	}
	sort.Strings(norm)
	sum := sha256.Sum256([]byte(strings.Join(norm, " ")))
	return hex.EncodeToString(sum[:])[:8]
}

var (
	uuidRe = regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)
	hashRe = regexp.MustCompile(`^[0-9a-f]{8}$`)
)

// Decode parses a session name. Names the grammar doesn't cover (including
// sessions created by other tools sharing the multiplexer) return
// ErrNotSessionName.
func Decode(name string) (Identity, error) {
	loc := uuidRe.FindStringIndex(name)
	if loc == nil {
		return Identity{}, fmt.Errorf("%q: no uuid: %w", name, ErrNotSessionName)
	}
	id := Identity{UUID: name[loc[0]:loc[1]]}

	head := name[:loc[0]]
	if !strings.HasSuffix(head, "-") {
		return Identity{}, fmt.Errorf("%q: malformed prefix: %w", name, ErrNotSessionName)
	}
	head = strings.TrimSuffix(head, "-")

	tool, rest, ok := strings.Cut(head, "-")
	if !ok || tool == "" {
		return Identity{}, fmt.Errorf("%q: missing tool or kind: %w", name, ErrNotSessionName)
	}
	id.Tool = tool
	switch {
	case rest == string(KindPartner):
		id.Kind = KindPartner
	case strings.HasPrefix(rest, "archangel-") && len(rest) > len("archangel-"):
		id.Kind = KindArchangel
		id.Name = strings.TrimPrefix(rest, "archangel-")
	default:
		return Identity{}, fmt.Errorf("%q: unknown kind %q: %w", name, rest, ErrNotSessionName)
	}

	switch tail := name[loc[1]:]; {
	case tail == "":
		id.Mode = ModeDefault
	case tail == "-yolo":
		id.Mode = ModeYolo
	case strings.HasPrefix(tail, "-p") && hashRe.MatchString(tail[2:]):
		id.Mode = ModeAllow
		id.Hash = tail[2:]
	default:
		return Identity{}, fmt.Errorf("%q: unknown suffix %q: %w", name, tail, ErrNotSessionName)
	}
	return id, nil
}

// Resolve maps a user-supplied partial identifier onto one of the live
// session names. The ladder, in order: exact name, unique archangel name,
// unique name prefix, unique UUID prefix. A rung with several matches is an
// AmbiguousError; no rung matching returns the input unchanged, letting the
// caller produce its usual "no such session" path.
func Resolve(input string, live []string) (string, error) {
	for _, name := range live {
		if name == input {
			return name, nil
		}
	}

	type decoded struct {
		name string
		id   Identity
	}
	var sessions []decoded
	for _, name := range live {
		if id, err := Decode(name); err == nil {
			sessions = append(sessions, decoded{name, id})
		}
	}

	pick := func(matches []string) (string, error) {
		if len(matches) == 1 {
			return matches[0], nil
		}
		sort.Strings(matches)
		return "", &AmbiguousError{Input: input, Candidates: matches}
	}

	var byArchangel []string
	for _, s := range sessions {
		if s.id.Kind == KindArchangel && s.id.Name == input {
			byArchangel = append(byArchangel, s.name)
		}
	}
	if len(byArchangel) > 0 {
		return pick(byArchangel)
	}

	var byPrefix []string
	for _, s := range sessions {
		if strings.HasPrefix(s.name, input) {
			byPrefix = append(byPrefix, s.name)
		}
	}
	if len(byPrefix) > 0 {
		return pick(byPrefix)
	}

	var byUUID []string
	for _, s := range sessions {
		if strings.HasPrefix(s.id.UUID, input) {
			byUUID = append(byUUID, s.name)
		}
	}
	if len(byUUID) > 0 {
		return pick(byUUID)
	}

	return input, nil
}
