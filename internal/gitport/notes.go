package gitport

import (
	"context"
	"strings"
)

// NotesAdd attaches (or replaces, via -f) content as a note on object
// under ref, piping content through stdin so it never has to survive
// argv quoting or length limits.
func (p *Port) NotesAdd(ctx context.Context, ref, object, content string) error {
	if err := ValidateNotesRef(ref); err != nil {
		return err
	}
	if err := ValidateRef(object); err != nil {
		return err
	}
	_, err := p.ExecStdin(ctx, strings.NewReader(content),
		"notes", "--ref="+ref, "add", "-f", "-F", "-", object)
	return err
}

// NotesShow returns the note content attached to object under ref. A
// missing note (git's "no note found" message) is reported as
// found=false with a nil error; any other git failure is returned as
// the error.
func (p *Port) NotesShow(ctx context.Context, ref, object string) (string, bool, error) {
	if err := ValidateNotesRef(ref); err != nil {
		return "", false, err
	}
	if err := ValidateRef(object); err != nil {
		return "", false, err
	}
	out, err := p.Exec(ctx, FailOnError, "notes", "--ref="+ref, "show", object)
	if err != nil {
		if isMissingNote(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return out, true, nil
}

// NotesRemove deletes the note attached to object under ref, treating a
// missing note as success.
func (p *Port) NotesRemove(ctx context.Context, ref, object string) error {
	if err := ValidateNotesRef(ref); err != nil {
		return err
	}
	if err := ValidateRef(object); err != nil {
		return err
	}
	_, err := p.Exec(ctx, FailOnError, "notes", "--ref="+ref, "remove", "--ignore-missing", object)
	return err
}

// NotesList returns the (noteObjectID, annotatedObjectID) pairs for
// every note under ref.
func (p *Port) NotesList(ctx context.Context, ref string) ([][2]string, error) {
	if err := ValidateNotesRef(ref); err != nil {
		return nil, err
	}
	out, err := p.Exec(ctx, FailOnError, "notes", "--ref="+ref, "list")
	if err != nil {
		if isMissingNotesTree(err) {
			return nil, nil
		}
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	var pairs [][2]string
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		pairs = append(pairs, [2]string{fields[0], fields[1]})
	}
	return pairs, nil
}

// ForEachRefNotes lists every refs/notes/vibe-validate/* ref that
// currently exists, used to enumerate per-run notes namespaces without
// walking the whole refs table.
func (p *Port) ForEachRefNotes(ctx context.Context, pattern string) ([]string, error) {
	if err := ValidateRef(pattern); err != nil {
		return nil, err
	}
	// The default output format ("<object> <type>\t<refname>") is parsed
	// instead of passing --format=%(refname), whose parentheses
	// ValidateArg rejects.
	out, err := p.Exec(ctx, FailOnError, "for-each-ref", pattern)
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	var refs []string
	for _, line := range strings.Split(out, "\n") {
		if i := strings.LastIndexByte(line, '\t'); i >= 0 {
			refs = append(refs, line[i+1:])
		}
	}
	return refs, nil
}

// UpdateRefDelete deletes a ref outright (used to prune an entire
// per-run notes namespace in one shot rather than removing notes one at
// a time).
func (p *Port) UpdateRefDelete(ctx context.Context, ref string) error {
	if err := ValidateRef(ref); err != nil {
		return err
	}
	_, err := p.Exec(ctx, FailOnError, "update-ref", "-d", ref)
	return err
}

func isMissingNote(err error) bool {
	return execErrStderrContains(err, "no note found for object") ||
		execErrStderrContains(err, "No note found")
}

func isMissingNotesTree(err error) bool {
	return execErrStderrContains(err, "failed to resolve") ||
		execErrStderrContains(err, "invalid object name")
}
