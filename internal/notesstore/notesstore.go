// Package notesstore wraps gitport to offer a typed key/value layer
// over git notes, storing YAML-encoded values under a dedicated ref
// namespace private to vibe-validate.
package notesstore

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/nightlyone/lockfile"

	"github.com/jdutton/vibe-validate/internal/gitport"
)

const (
	// Namespace is the root of every ref this package manages.
	Namespace = "refs/notes/vibe-validate"

	// lockFileName is written under the repository's git directory to
	// serialize put/delete calls across concurrent vibe-validate
	// invocations, since `git notes add` is not atomic between processes.
	lockFileName = "vibe-validate.lock"

	lockRetryAttempts = 3
	lockRetryDelay    = 100 * time.Millisecond
)

// Entry is one (noteObjectID, annotatedObjectID) pair returned by List.
type Entry struct {
	NoteSHA   string
	ObjectKey string
}

// Store is a YAML key/value layer over a family of git notes refs,
// guarded against cross-process write races with an advisory lock file.
type Store struct {
	git     *gitport.Port
	gitDir  string // resolved lazily, cached for the lock path
}

// New returns a Store operating against the repository at repoRoot.
func New(repoRoot string) *Store {
	return &Store{git: gitport.New(repoRoot)}
}

// Put encodes value as YAML and writes it as the note on key under ref,
// overwriting any existing note. Writes are serialized per-repository
// via an advisory lock file since concurrent `git notes add` calls
// racing on the same ref are not safe.
func (s *Store) Put(ctx context.Context, ref, key string, value any) error {
	data, err := yaml.Marshal(value)
	if err != nil {
		return fmt.Errorf("notesstore: encoding value for %s: %w", key, err)
	}

	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	return s.git.NotesAdd(ctx, ref, key, string(data))
}

// PutRaw is like Put but takes an already-encoded YAML string, used by
// callers that want to avoid re-marshaling a value they already hold as
// text (e.g. when copying a note verbatim during prune).
func (s *Store) PutRaw(ctx context.Context, ref, key, yamlContent string) error {
	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	return s.git.NotesAdd(ctx, ref, key, yamlContent)
}

// Get reads the note on key under ref and decodes it into out. Returns
// (false, nil) if no note exists; any other failure is also treated as
// a cache miss by the caller's perspective but the error is still
// returned so callers can log it.
func (s *Store) Get(ctx context.Context, ref, key string, out any) (bool, error) {
	raw, found, err := s.git.NotesShow(ctx, ref, key)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	if err := yaml.Unmarshal([]byte(raw), out); err != nil {
		return false, fmt.Errorf("notesstore: decoding note %s: %w", key, err)
	}
	return true, nil
}

// GetRaw returns the raw YAML text of the note on key under ref without
// decoding it.
func (s *Store) GetRaw(ctx context.Context, ref, key string) (string, bool, error) {
	return s.git.NotesShow(ctx, ref, key)
}

// Delete removes the note on key under ref, treating a missing note as
// success.
func (s *Store) Delete(ctx context.Context, ref, key string) error {
	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	return s.git.NotesRemove(ctx, ref, key)
}

// List enumerates every (note, object) pair under ref without reading
// note content, an O(1)-per-entry enumeration.
func (s *Store) List(ctx context.Context, ref string) ([]Entry, error) {
	pairs, err := s.git.NotesList(ctx, ref)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, len(pairs))
	for i, p := range pairs {
		entries[i] = Entry{NoteSHA: p[0], ObjectKey: p[1]}
	}
	return entries, nil
}

// ListRefs returns every ref under the given prefix (e.g. all
// per-tree-hash run namespaces).
func (s *Store) ListRefs(ctx context.Context, prefix string) ([]string, error) {
	return s.git.ForEachRefNotes(ctx, prefix)
}

// HasRef reports whether ref has been initialized (has at least one
// commit in its notes history).
func (s *Store) HasRef(ctx context.Context, ref string) bool {
	return s.git.VerifyRef(ctx, ref)
}

// RefLastModifiedAt returns the author date of the most recent commit on
// ref's notes history, or false if ref has no history.
func (s *Store) RefLastModifiedAt(ctx context.Context, ref string) (time.Time, bool) {
	return s.git.LastModified(ctx, ref)
}

// PruneOlderThan walks the validation-cache ref and deletes every entry
// whose newest run predates the cutoff. newestRunTime is supplied by the
// caller (cache package) since only it knows how to interpret the
// decoded HistoryNote's runs[].
func (s *Store) PruneOlderThan(ctx context.Context, ref string, cutoff time.Time, newestRunTime func(raw string) (time.Time, bool)) (int, error) {
	entries, err := s.List(ctx, ref)
	if err != nil {
		return 0, err
	}

	var pruned int
	for _, e := range entries {
		raw, found, err := s.GetRaw(ctx, ref, e.ObjectKey)
		if err != nil || !found {
			continue
		}
		newest, ok := newestRunTime(raw)
		if !ok || newest.After(cutoff) {
			continue
		}
		if err := s.Delete(ctx, ref, e.ObjectKey); err != nil {
			continue
		}
		pruned++
	}
	return pruned, nil
}

// PruneAll deletes the entire notes namespace: the validation-cache ref
// and every per-tree run-cache ref under Namespace+"/run/".
func (s *Store) PruneAll(ctx context.Context) (int, error) {
	validateRef := Namespace + "/validate"
	entries, _ := s.List(ctx, validateRef)
	pruned := len(entries)

	_ = s.git.UpdateRefDelete(ctx, validateRef)

	runRefs, err := s.ListRefs(ctx, Namespace+"/run/*")
	if err != nil {
		return pruned, err
	}
	for _, ref := range runRefs {
		if err := s.git.UpdateRefDelete(ctx, ref); err == nil {
			pruned++
		}
	}
	return pruned, nil
}

// EncodeRunKey percent-encodes a normalized "workdir:command" (or bare
// "command" when workdir is empty) composite into a key safe for use as
// a git notes object argument.
func EncodeRunKey(command, workdir string) string {
	composite := command
	if workdir != "" {
		composite = workdir + ":" + command
	}
	return url.PathEscape(composite)
}

// RunRef returns the per-tree run-cache ref a given tree hash's run
// entries live under. treeHash is vibe-validate's own composite
// identifier (§4.2), not necessarily a raw git tree object id — for a
// repo with submodules it's a SHA-256 digest rather than git's native
// SHA-1 tree-ish — so it's validated with ValidateRef's general
// ref-safety rules rather than a git-tree-id-shaped format check.
func RunRef(treeHash string) (string, error) {
	ref := path.Join(Namespace, "run", treeHash)
	if err := gitport.ValidateNotesRef(ref); err != nil {
		return "", fmt.Errorf("notesstore: %w", err)
	}
	return ref, nil
}

// ValidateRef is the single ref all HistoryNotes live under.
const ValidateRef = Namespace + "/validate"

func (s *Store) lock(ctx context.Context) (func(), error) {
	gitDir, err := s.resolveGitDir(ctx)
	if err != nil {
		return nil, err
	}

	lockPath := path.Join(gitDir, lockFileName)
	lf, err := lockfile.New(lockPath)
	if err != nil {
		return nil, fmt.Errorf("notesstore: creating lockfile handle: %w", err)
	}

	var lastErr error
	for range lockRetryAttempts {
		lastErr = lf.TryLock()
		if lastErr == nil {
			return func() { _ = lf.Unlock() }, nil
		}
		if lastErr == lockfile.ErrBusy {
			time.Sleep(lockRetryDelay)
			continue
		}
		// Permanent error (bad path, permissions): don't retry.
		break
	}
	return nil, fmt.Errorf("notesstore: acquiring write lock: %w", lastErr)
}

func (s *Store) resolveGitDir(ctx context.Context) (string, error) {
	if s.gitDir != "" {
		return s.gitDir, nil
	}
	dir, err := s.git.GitDir(ctx)
	if err != nil {
		return "", fmt.Errorf("notesstore: resolving git dir: %w", err)
	}
	s.gitDir = dir
	return dir, nil
}
