// Package treehash computes deterministic, submodule-aware content
// fingerprints of a git working tree. The fingerprint includes
// uncommitted changes (staged or not) but excludes ignored files,
// matching what a validation command would actually see on disk.
package treehash

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/jdutton/vibe-validate/internal/gitport"
)

// ErrNotARepo is returned when the target directory is not inside a git
// working tree.
var ErrNotARepo = errors.New("treehash: not a git repository")

// Hasher computes tree hashes for a repository and its submodules.
type Hasher struct {
	git         *gitport.Port
	ignoreGlobs []string
}

// New returns a Hasher rooted at repoRoot.
func New(repoRoot string) *Hasher {
	return &Hasher{git: gitport.New(repoRoot)}
}

// WithIgnoreGlobs adds doublestar patterns (e.g. "**/*.generated.go")
// excluded from the hash beyond what .gitignore already covers — for
// build output or scratch files a repo tracks ignoring via its config
// rather than its .gitignore.
func (h *Hasher) WithIgnoreGlobs(globs []string) *Hasher {
	h.ignoreGlobs = globs
	return h
}

func (h *Hasher) ignored(path string) bool {
	for _, pattern := range h.ignoreGlobs {
		if ok, _ := doublestar.Match(pattern, path); ok {
			return true
		}
	}
	return false
}

// Compute returns the composite tree hash for the repository rooted at
// h's directory, recursing into submodules.
func (h *Hasher) Compute(ctx context.Context) (string, error) {
	if !h.git.IsRepo(ctx) {
		return "", ErrNotARepo
	}
	return h.computeComposite(ctx, h.git, ".")
}

// computeComposite hashes the main component of g's repository and all of
// its submodules, combining them per the spec's SHA-256(join) rule.
// selfPath is the repo's own identity path within its parent composite ("." for the
// top-level repo, or the submodule's relative path).
func (h *Hasher) computeComposite(ctx context.Context, g *gitport.Port, selfPath string) (string, error) {
	mainHash, err := h.mainComponentHash(ctx, g)
	if err != nil {
		return "", err
	}

	subs, err := listSubmodules(ctx, g)
	if err != nil {
		return "", err
	}
	if len(subs) == 0 {
		return mainHash, nil
	}

	pairs := []string{selfPath + ":" + mainHash}
	sort.Strings(subs)
	for _, subPath := range subs {
		subGit := gitport.New(joinPath(g.Dir, subPath))
		subHasher := (&Hasher{git: subGit}).WithIgnoreGlobs(h.ignoreGlobs)
		subHash, err := subHasher.computeComposite(ctx, subGit, subPath)
		if err != nil {
			// A submodule that isn't checked out contributes its
			// recorded gitlink sha instead of erroring the whole hash.
			if sha, ok := submoduleGitlinkSHA(ctx, g, subPath); ok {
				pairs = append(pairs, subPath+":"+sha)
				continue
			}
			return "", fmt.Errorf("treehash: submodule %s: %w", subPath, err)
		}
		pairs = append(pairs, subPath+":"+subHash)
	}

	sum := sha256.Sum256([]byte(strings.Join(pairs, "\n")))
	return hex.EncodeToString(sum[:]), nil
}

// mainComponentHash builds a throwaway index containing every tracked
// and untracked-but-not-ignored file (minus any extra WithIgnoreGlobs
// patterns), then asks git for that index's tree object id. The real
// index is never touched.
func (h *Hasher) mainComponentHash(ctx context.Context, g *gitport.Port) (string, error) {
	tmpIndex, err := os.CreateTemp("", "vibe-validate-index-*")
	if err != nil {
		return "", fmt.Errorf("treehash: creating temp index: %w", err)
	}
	tmpIndexPath := tmpIndex.Name()
	_ = tmpIndex.Close()
	// git rejects a zero-length index file, so the placeholder is removed
	// and the first `git add` creates a fresh index at this path.
	_ = os.Remove(tmpIndexPath)
	defer os.Remove(tmpIndexPath)

	files, err := g.LsFiles(ctx)
	if err != nil {
		return "", fmt.Errorf("treehash: ls-files: %w", err)
	}
	for _, f := range files {
		if h.ignored(f) {
			continue
		}
		if _, err := g.ExecWithIndex(ctx, tmpIndexPath, "add", "--force", "--", f); err != nil {
			// A file that vanished between ls-files and add (e.g. a
			// racing editor save) is skipped rather than failing the
			// whole hash.
			continue
		}
	}

	out, err := g.ExecWithIndex(ctx, tmpIndexPath, "write-tree")
	if err != nil {
		return "", fmt.Errorf("treehash: write-tree: %w", err)
	}
	return out, nil
}

// HasWorkingTreeChanges reports whether the current on-disk content
// differs from HEAD's tree.
func (h *Hasher) HasWorkingTreeChanges(ctx context.Context) (bool, error) {
	current, err := h.Compute(ctx)
	if err != nil {
		return false, err
	}
	head, err := h.git.HeadTreeSHA(ctx)
	if err != nil {
		// No commits yet: any tracked/untracked content counts as a change.
		return current != emptyTreeHash, nil
	}
	return current != head, nil
}

// emptyTreeHash is git's well-known hash of an empty tree, used as the
// baseline for brand-new repositories with no commits.
const emptyTreeHash = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"

func listSubmodules(ctx context.Context, g *gitport.Port) ([]string, error) {
	out, err := g.Exec(ctx, gitport.IgnoreError, "submodule", "status")
	if err != nil {
		// No .gitmodules, or submodule command unsupported: treat as
		// "no submodules" rather than failing the whole hash.
		return nil, nil
	}
	var paths []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(strings.TrimLeft(line, "+-U "))
		if len(fields) < 2 {
			continue
		}
		paths = append(paths, fields[1])
	}
	return paths, nil
}

// submoduleGitlinkSHA reads the committed gitlink SHA for an
// uninitialized submodule directly from the index, used as a fallback
// when the submodule has no working tree to recurse into.
func submoduleGitlinkSHA(ctx context.Context, g *gitport.Port, subPath string) (string, bool) {
	out, err := g.Exec(ctx, gitport.IgnoreError, "ls-tree", "HEAD", "--", subPath)
	if err != nil || out == "" {
		return "", false
	}
	fields := strings.Fields(out)
	if len(fields) < 3 {
		return "", false
	}
	return fields[2], true
}

func joinPath(base, rel string) string {
	if base == "" {
		return rel
	}
	return strings.TrimSuffix(base, "/") + "/" + rel
}
