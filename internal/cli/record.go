package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/daybook/internal/models"
	"github.com/dmitrijs2005/daybook/internal/repositories/records"
)

// kindAliases maps command-line names to record kinds. "capture" goes
// through transcription and lands as a voice record.
var kindAliases = map[string]models.Kind{
	"task":     models.KindTask,
	"note":     models.KindNote,
	"reminder": models.KindReminder,
	"journal":  models.KindJournal,
	"capture":  models.KindVoice,
}

func formatRecord(r *models.Record) string {
	var sb strings.Builder

	id := r.ID
	if len(id) > 8 {
		id = id[:8]
	}
	fmt.Fprintf(&sb, "%s  [%s] %s", id, r.Kind, r.Content)
	if r.Title != "" {
		fmt.Fprintf(&sb, " - %s", r.Title)
	}
	if len(r.Tags) > 0 {
		fmt.Fprintf(&sb, "  #%s", strings.Join(r.Tags, " #"))
	}
	if r.Quadrant != 0 {
		fmt.Fprintf(&sb, "  Q%d", r.Quadrant)
	}
	if r.Done {
		sb.WriteString("  (done)")
	}
	if r.Archived {
		sb.WriteString("  (archived)")
	}
	return sb.String()
}

func (a *App) Add(ctx context.Context, kindName string) error {
	kind, ok := kindAliases[kindName]
	if !ok {
		printlnFn("Unknown kind:", kindName)
		return fmt.Errorf("unknown kind %q", kindName)
	}

	if kind == models.KindVoice {
		return a.addCapture(ctx)
	}

	content, err := GetMultiline(a.reader, "Content", os.Stdout)
	if err != nil {
		return err
	}

	rec, err := a.records.Add(ctx, kind, content, models.ProvenanceManual)
	if err != nil {
		printlnFn("Error:", err.Error())
		return err
	}
	printlnFn("Added", formatRecord(rec))
	return nil
}

// addCapture reads an audio file, transcribes it and stores the text as a
// voice record.
func (a *App) addCapture(ctx context.Context) error {
	path, err := GetSimpleText(a.reader, "Path of the audio file", os.Stdout)
	if err != nil {
		return err
	}

	audio, err := os.ReadFile(path)
	if err != nil {
		printlnFn("Error:", err.Error())
		return err
	}

	text, err := a.transcriber.Fetch(ctx, audio, mimeTypeFor(path))
	if err != nil {
		printlnFn("Transcription failed:", err.Error())
		return err
	}

	rec, err := a.records.Add(ctx, models.KindVoice, text, models.ProvenanceVoice)
	if err != nil {
		printlnFn("Error:", err.Error())
		return err
	}
	printlnFn("Added", formatRecord(rec))
	return nil
}

func mimeTypeFor(path string) string {
	switch {
	case strings.HasSuffix(path, ".wav"):
		return "audio/wav"
	case strings.HasSuffix(path, ".mp3"):
		return "audio/mpeg"
	case strings.HasSuffix(path, ".ogg"):
		return "audio/ogg"
	default:
		return "audio/webm"
	}
}

func (a *App) AddDiary(ctx context.Context) error {
	title, err := GetSimpleText(a.reader, "Title", os.Stdout)
	if err != nil {
		return err
	}
	content, err := GetMultiline(a.reader, "Entry", os.Stdout)
	if err != nil {
		return err
	}

	rec, err := a.records.AddDiaryEntry(ctx, title, content)
	if err != nil {
		printlnFn("Error:", err.Error())
		return err
	}
	printlnFn("Added", formatRecord(rec))
	return nil
}

// List prints records; args may contain a kind name and/or a #tag.
func (a *App) List(ctx context.Context, args []string) error {
	var f records.Filter
	for _, arg := range args {
		if tag, ok := strings.CutPrefix(arg, "#"); ok {
			f.Tag = tag
			continue
		}
		if kind, ok := kindAliases[arg]; ok {
			f.Kind = kind
			continue
		}
		if arg == "diary" {
			f.Kind = models.KindDiary
			continue
		}
		printlnFn("Unknown filter:", arg)
		return fmt.Errorf("unknown filter %q", arg)
	}

	rows, err := a.records.List(ctx, f)
	if err != nil {
		printlnFn("Error:", err.Error())
		return err
	}
	if len(rows) == 0 {
		printlnFn("No records")
		return nil
	}
	for _, r := range rows {
		printlnFn(formatRecord(r))
	}
	return nil
}

func (a *App) Done(ctx context.Context, id string) error {
	if err := a.records.Complete(ctx, id); err != nil {
		printlnFn("Error:", err.Error())
		return err
	}
	printlnFn("Done", id)
	return nil
}

func (a *App) Archive(ctx context.Context, id string) error {
	if err := a.records.Archive(ctx, id); err != nil {
		printlnFn("Error:", err.Error())
		return err
	}
	printlnFn("Archived", id)
	return nil
}

func (a *App) Delete(ctx context.Context, id string) error {
	if err := a.records.Delete(ctx, id); err != nil {
		printlnFn("Error:", err.Error())
		return err
	}
	printlnFn("Deleted", id)
	return nil
}

func (a *App) Tag(ctx context.Context, id string, tags []string) error {
	if err := a.records.Tag(ctx, id, tags); err != nil {
		printlnFn("Error:", err.Error())
		return err
	}
	printlnFn("Tagged", id)
	return nil
}

// Classify asks the classifier for a quadrant and stores it.
func (a *App) Classify(ctx context.Context, id string) error {
	rec, err := a.records.Get(ctx, id)
	if err != nil {
		printlnFn("Error:", err.Error())
		return err
	}

	q, err := a.classifier.Classify(ctx, rec.Content)
	if err != nil {
		printlnFn("Error:", err.Error())
		return err
	}
	if err := a.records.SetQuadrant(ctx, id, q); err != nil {
		printlnFn("Error:", err.Error())
		return err
	}
	printlnFn(fmt.Sprintf("Classified %s as Q%d", id, q))
	return nil
}

var quadrantNames = map[models.Quadrant]string{
	0: "Unclassified",
	1: "Q1: urgent & important",
	2: "Q2: important",
	3: "Q3: urgent",
	4: "Q4: neither",
}

func (a *App) Matrix(ctx context.Context) error {
	m, err := a.records.Matrix(ctx)
	if err != nil {
		printlnFn("Error:", err.Error())
		return err
	}

	for q := models.Quadrant(1); q <= 4; q++ {
		printlnFn(quadrantNames[q])
		for _, r := range m[q] {
			printlnFn("  " + formatRecord(r))
		}
	}
	if len(m[0]) > 0 {
		printlnFn(quadrantNames[0])
		for _, r := range m[0] {
			printlnFn("  " + formatRecord(r))
		}
	}
	return nil
}
