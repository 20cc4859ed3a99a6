package deliverylog

import (
	"maps"
	"strings"
	"time"
)

// Status is the delivery state of a log entry.
type Status string

const (
	StatusPending  Status = "pending"
	StatusRetrying Status = "retrying"
	StatusSent     Status = "sent"
	StatusFailed   Status = "failed"
	StatusTest     Status = "test"
)

// CustomTemplate is recorded for sends that did not go through a template.
const CustomTemplate = "custom"

var transitions = map[Status][]Status{
	StatusPending:  {StatusRetrying, StatusSent, StatusFailed, StatusTest},
	StatusRetrying: {StatusRetrying, StatusSent, StatusFailed},
}

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	_, ok := transitions[s]
	return !ok
}

// CanTransitionTo reports whether an entry in status s may move to next.
// Statuses only move forward: pending -> retrying* -> sent|failed, or pending -> test.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// EntryError is the last error recorded for a lineage.
type EntryError struct {
	Message     string `json:"message" bson:"message"`
	Code        string `json:"code,omitempty" bson:"code,omitempty"`
	Attempt     int    `json:"attempt" bson:"attempt"`
	MaxAttempts int    `json:"max_attempts" bson:"maxAttempts"`
}

// Entry is one delivery lineage: the initial attempt and all its retries.
type Entry struct {
	ID           string         `json:"id" bson:"_id"`
	TemplateID   string         `json:"template_id" bson:"templateId"`
	TemplateName string         `json:"template_name" bson:"templateName"`
	From         string         `json:"from" bson:"from"`
	To           string         `json:"to" bson:"to"`
	CC           string         `json:"cc,omitempty" bson:"cc,omitempty"`
	BCC          string         `json:"bcc,omitempty" bson:"bcc,omitempty"`
	Subject      string         `json:"subject" bson:"subject"`
	Status       Status         `json:"status" bson:"status"`
	Error        *EntryError    `json:"error,omitempty" bson:"error,omitempty"`
	MessageID    string         `json:"message_id,omitempty" bson:"messageId,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty" bson:"metadata,omitempty"`
	RetryCount   int            `json:"retry_count" bson:"retryCount"`
	SentAt       *time.Time     `json:"sent_at,omitempty" bson:"sentAt,omitempty"`
	CreatedAt    time.Time      `json:"created_at" bson:"createdAt"`
	UpdatedAt    time.Time      `json:"updated_at" bson:"updatedAt"`
}

// Clone returns a deep copy of the entry.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	c := *e
	if e.Error != nil {
		errCopy := *e.Error
		c.Error = &errCopy
	}
	if e.SentAt != nil {
		sentAt := *e.SentAt
		c.SentAt = &sentAt
	}
	c.Metadata = cloneMap(e.Metadata)
	return &c
}

// Apply merges p into the entry. Scalar fields are replaced; Metadata is deep-merged.
func (e *Entry) Apply(p Patch) {
	if p.Status != nil {
		e.Status = *p.Status
	}
	if p.Error != nil {
		errCopy := *p.Error
		e.Error = &errCopy
	}
	if p.MessageID != nil {
		e.MessageID = *p.MessageID
	}
	if p.RetryCount != nil {
		e.RetryCount = *p.RetryCount
	}
	if p.SentAt != nil {
		sentAt := *p.SentAt
		e.SentAt = &sentAt
	}
	if len(p.Metadata) > 0 {
		e.Metadata = MergeMetadata(e.Metadata, p.Metadata)
	}
	if !p.UpdatedAt.IsZero() {
		e.UpdatedAt = p.UpdatedAt
	}
}

// Patch is a partial update of an entry. Nil fields are left untouched.
type Patch struct {
	Status     *Status
	Error      *EntryError
	MessageID  *string
	RetryCount *int
	SentAt     *time.Time
	Metadata   map[string]any
	UpdatedAt  time.Time
}

func (p Patch) WithStatus(s Status) Patch {
	p.Status = &s
	return p
}

func (p Patch) WithError(e EntryError) Patch {
	p.Error = &e
	return p
}

func (p Patch) WithMessageID(id string) Patch {
	p.MessageID = &id
	return p
}

func (p Patch) WithRetryCount(n int) Patch {
	p.RetryCount = &n
	return p
}

func (p Patch) WithSentAt(t time.Time) Patch {
	p.SentAt = &t
	return p
}

func (p Patch) WithMetadata(m map[string]any) Patch {
	p.Metadata = MergeMetadata(p.Metadata, m)
	return p
}

// MergeMetadata deep-merges src into a copy of dst. Nested maps are merged
// key by key; any other value in src replaces the one in dst.
func MergeMetadata(dst, src map[string]any) map[string]any {
	out := cloneMap(dst)
	if out == nil {
		out = make(map[string]any, len(src))
	}
	for k, v := range src {
		srcMap, srcIsMap := v.(map[string]any)
		dstMap, dstIsMap := out[k].(map[string]any)
		if srcIsMap && dstIsMap {
			out[k] = MergeMetadata(dstMap, srcMap)
			continue
		}
		if srcIsMap {
			out[k] = cloneMap(srcMap)
			continue
		}
		out[k] = v
	}
	return out
}

// normalizeMetadata expands dotted keys into nested maps, so {"a.b": 1}
// becomes {"a": {"b": 1}} and every store addresses the same paths.
// Empty path segments are dropped.
func normalizeMetadata(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			v = normalizeMetadata(nested)
		}
		path := splitPath(k)
		if len(path) == 0 {
			continue
		}
		for i := len(path) - 1; i > 0; i-- {
			v = map[string]any{path[i]: v}
		}
		out = MergeMetadata(out, map[string]any{path[0]: v})
	}
	return out
}

func splitPath(key string) []string {
	parts := strings.Split(key, ".")
	path := parts[:0]
	for _, p := range parts {
		if p != "" {
			path = append(path, p)
		}
	}
	return path
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := maps.Clone(m)
	for k, v := range out {
		if nested, ok := v.(map[string]any); ok {
			out[k] = cloneMap(nested)
		}
	}
	return out
}

// JoinAddresses normalizes one or many addresses into a comma-joined string.
func JoinAddresses(addrs []string) string {
	clean := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if a = strings.TrimSpace(a); a != "" {
			clean = append(clean, a)
		}
	}
	return strings.Join(clean, ", ")
}
