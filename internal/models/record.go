// Package models defines the unified record model: every piece of user
// content (voice capture, task, reminder, note, journal entry, diary page)
// lives in one table and is synchronized as one unit.
package models

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind classifies a record. It is immutable after creation: there is no
// in-place type migration, a record keeps its kind for life.
type Kind string

const (
	KindVoice    Kind = "voice"
	KindTask     Kind = "task"
	KindReminder Kind = "reminder"
	KindNote     Kind = "note"
	KindJournal  Kind = "journal"
	KindDiary    Kind = "diary"
)

// Provenance records how a record was produced.
type Provenance string

const (
	ProvenanceVoice  Provenance = "voice"
	ProvenanceChat   Provenance = "chat"
	ProvenanceManual Provenance = "manual"
	ProvenanceDiary  Provenance = "diary"
)

// Quadrant is an Eisenhower-matrix priority class. Zero means unclassified.
type Quadrant int

const (
	QuadrantUnset              Quadrant = 0
	QuadrantUrgentImportant    Quadrant = 1
	QuadrantNotUrgentImportant Quadrant = 2
	QuadrantUrgentUnimportant  Quadrant = 3
	QuadrantNeither            Quadrant = 4
)

var ErrUnknownKind = errors.New("unknown record kind")

// Record is one persisted unit of user content.
//
// LogicalDate is the date the record is "about" (the diary page's day, the
// task's target day), distinct from CreatedAt. UpdatedAt is stamped on every
// local write and is the data clock the sync layer compares; it is
// non-decreasing under local mutation.
type Record struct {
	ID          string     `json:"id"`
	Kind        Kind       `json:"kind"`
	Title       string     `json:"title,omitempty"`
	Content     string     `json:"content"`
	LogicalDate time.Time  `json:"logicalDate"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	Tags        []string   `json:"tags,omitempty"`
	Quadrant    Quadrant   `json:"quadrant,omitempty"`
	Done        bool       `json:"done,omitempty"`
	Archived    bool       `json:"archived,omitempty"`
	Provenance  Provenance `json:"provenance"`
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindVoice, KindTask, KindReminder, KindNote, KindJournal, KindDiary:
		return true
	}
	return false
}

// New creates a record of the given kind with a fresh id and both clocks set
// to now. LogicalDate defaults to today.
func New(kind Kind, content string, prov Provenance) *Record {
	now := time.Now().UTC()
	return &Record{
		ID:          uuid.NewString(),
		Kind:        kind,
		Content:     content,
		LogicalDate: now.Truncate(24 * time.Hour),
		CreatedAt:   now,
		UpdatedAt:   now,
		Provenance:  prov,
	}
}

// Touch stamps UpdatedAt with the current time. Every local mutation must go
// through here so the sync layer's data clock moves forward.
func (r *Record) Touch() {
	r.UpdatedAt = time.Now().UTC()
}

// SetTags replaces the tag set with a normalized copy of tags.
func (r *Record) SetTags(tags []string) {
	r.Tags = NormalizeTags(tags)
}

// NormalizeTags trims, lowercases, deduplicates and sorts tags. Order of the
// input is irrelevant; the result is canonical so snapshots of the same state
// serialize identically.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	result := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		result = append(result, t)
	}
	sort.Strings(result)
	return result
}
