// Package snapshot is the single conversion point between the local record
// table and the JSON document every backend stores. All cross-store schema
// evolution is funneled through here, so date-encoding differences can only
// occur in one place.
//
// The wire document keeps the legacy per-category arrays (voiceNotes, tasks,
// reminders, notes, journal, diaryPages) even though the local store holds
// one unified table; older exports stay importable and every backend sees
// the same shape.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dmitrijs2005/daybook/internal/models"
	"github.com/dmitrijs2005/daybook/internal/repositories/records"
)

// Version tags the current document format.
const Version = "3"

// ErrBadFormat is returned when a document fails shape validation. No local
// mutation happens on a bad document.
var ErrBadFormat = errors.New("bad snapshot format")

// dateLayout is the wire encoding of date-only fields.
const dateLayout = "2006-01-02"

// collections maps legacy array names to record kinds, in wire order.
var collections = []struct {
	name string
	kind models.Kind
}{
	{"voiceNotes", models.KindVoice},
	{"tasks", models.KindTask},
	{"reminders", models.KindReminder},
	{"notes", models.KindNote},
	{"journal", models.KindJournal},
	{"diaryPages", models.KindDiary},
}

// Snapshot is a point-in-time export of every record. It is created fresh
// per sync operation and discarded after transmission.
type Snapshot struct {
	Version string
	Records []*models.Record
}

// ApplyResult reports what a snapshot import did.
type ApplyResult struct {
	Applied int
	Failed  int
}

// wireRecord is the serialized form of one record. Timestamps travel as
// RFC 3339, the logical date as a plain yyyy-mm-dd string.
type wireRecord struct {
	ID          string    `json:"id"`
	Title       string    `json:"title,omitempty"`
	Content     string    `json:"content"`
	LogicalDate string    `json:"logicalDate"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Tags        []string  `json:"tags,omitempty"`
	Quadrant    int       `json:"quadrant,omitempty"`
	Done        bool      `json:"done,omitempty"`
	Archived    bool      `json:"archived,omitempty"`
	Provenance  string    `json:"provenance,omitempty"`
}

// document is the top-level wire shape. Collections are raw so Decode can
// verify each one is list-typed before touching anything.
type document struct {
	Version    string          `json:"version"`
	VoiceNotes json.RawMessage `json:"voiceNotes"`
	Tasks      json.RawMessage `json:"tasks"`
	Reminders  json.RawMessage `json:"reminders"`
	Notes      json.RawMessage `json:"notes"`
	Journal    json.RawMessage `json:"journal"`
	DiaryPages json.RawMessage `json:"diaryPages"`
}

func (d *document) collection(name string) json.RawMessage {
	switch name {
	case "voiceNotes":
		return d.VoiceNotes
	case "tasks":
		return d.Tasks
	case "reminders":
		return d.Reminders
	case "notes":
		return d.Notes
	case "journal":
		return d.Journal
	case "diaryPages":
		return d.DiaryPages
	}
	return nil
}

func (d *document) setCollection(name string, raw json.RawMessage) {
	switch name {
	case "voiceNotes":
		d.VoiceNotes = raw
	case "tasks":
		d.Tasks = raw
	case "reminders":
		d.Reminders = raw
	case "notes":
		d.Notes = raw
	case "journal":
		d.Journal = raw
	case "diaryPages":
		d.DiaryPages = raw
	}
}

// Export reads every record (archived and done included, no filtering, no
// redaction) and wraps it with the current version tag.
func Export(ctx context.Context, repo records.Repository) (*Snapshot, error) {
	all, err := repo.List(ctx, records.Filter{IncludeArchived: true, IncludeDone: true})
	if err != nil {
		return nil, fmt.Errorf("failed to export records: %w", err)
	}
	return &Snapshot{Version: Version, Records: all}, nil
}

// Encode marshals the snapshot into the wire document. Records within each
// collection are sorted by id so identical local states encode to identical
// bytes (idempotent upload).
func (s *Snapshot) Encode() ([]byte, error) {
	byKind := make(map[models.Kind][]*models.Record)
	for _, rec := range s.Records {
		byKind[rec.Kind] = append(byKind[rec.Kind], rec)
	}

	doc := document{Version: s.Version}
	for _, c := range collections {
		recs := byKind[c.kind]
		sort.Slice(recs, func(i, j int) bool { return recs[i].ID < recs[j].ID })

		wire := make([]wireRecord, 0, len(recs))
		for _, rec := range recs {
			wire = append(wire, wireRecord{
				ID:          rec.ID,
				Title:       rec.Title,
				Content:     rec.Content,
				LogicalDate: rec.LogicalDate.UTC().Format(dateLayout),
				CreatedAt:   rec.CreatedAt.UTC(),
				UpdatedAt:   rec.UpdatedAt.UTC(),
				Tags:        models.NormalizeTags(rec.Tags),
				Quadrant:    int(rec.Quadrant),
				Done:        rec.Done,
				Archived:    rec.Archived,
				Provenance:  string(rec.Provenance),
			})
		}

		raw, err := json.Marshal(wire)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", c.name, err)
		}
		doc.setCollection(c.name, raw)
	}

	return json.Marshal(doc)
}

// Decode validates the document shape and folds the legacy arrays back into
// the unified record list. The record kind is taken from the collection the
// record arrived in. Any shape violation yields ErrBadFormat and no result.
func Decode(data []byte) (*Snapshot, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFormat, err)
	}
	if doc.Version == "" {
		return nil, fmt.Errorf("%w: missing version", ErrBadFormat)
	}

	snap := &Snapshot{Version: doc.Version}
	for _, c := range collections {
		raw := doc.collection(c.name)
		if !isJSONArray(raw) {
			return nil, fmt.Errorf("%w: collection %q is not a list", ErrBadFormat, c.name)
		}

		var wire []wireRecord
		if err := json.Unmarshal(raw, &wire); err != nil {
			return nil, fmt.Errorf("%w: collection %q: %v", ErrBadFormat, c.name, err)
		}

		for _, w := range wire {
			if w.ID == "" {
				return nil, fmt.Errorf("%w: collection %q has a record without id", ErrBadFormat, c.name)
			}
			logicalDate, err := time.Parse(dateLayout, w.LogicalDate)
			if err != nil {
				// Old exports carried full timestamps here.
				logicalDate, err = time.Parse(time.RFC3339, w.LogicalDate)
				if err != nil {
					return nil, fmt.Errorf("%w: record %s: bad logicalDate %q", ErrBadFormat, w.ID, w.LogicalDate)
				}
				logicalDate = logicalDate.UTC().Truncate(24 * time.Hour)
			}

			snap.Records = append(snap.Records, &models.Record{
				ID:          w.ID,
				Kind:        c.kind,
				Title:       w.Title,
				Content:     w.Content,
				LogicalDate: logicalDate,
				CreatedAt:   w.CreatedAt,
				UpdatedAt:   w.UpdatedAt,
				Tags:        models.NormalizeTags(w.Tags),
				Quadrant:    models.Quadrant(w.Quadrant),
				Done:        w.Done,
				Archived:    w.Archived,
				Provenance:  models.Provenance(w.Provenance),
			})
		}
	}
	return snap, nil
}

func isJSONArray(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case '[':
			return true
		default:
			return false
		}
	}
	return false
}

// Apply upserts every snapshot record into the local store. It never deletes
// local records absent from the snapshot: import is additive/overwriting,
// not destructive. A record that fails to upsert does not undo the records
// applied before it; the failures are counted and joined into the returned
// error.
func Apply(ctx context.Context, repo records.Repository, snap *Snapshot) (ApplyResult, error) {
	var result ApplyResult
	var errs []error

	for _, rec := range snap.Records {
		if err := repo.Upsert(ctx, rec); err != nil {
			result.Failed++
			errs = append(errs, fmt.Errorf("record %s: %w", rec.ID, err))
			continue
		}
		result.Applied++
	}

	return result, errors.Join(errs...)
}
