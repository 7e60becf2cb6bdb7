package gitport

import "fmt"

// ValidateArg rejects argv entries that could be mistaken for flags or
// that carry shell metacharacters git itself would never need. Every
// caller-supplied identifier (ref name, tree hash, notes ref) passes
// through here before it reaches exec.Command; this is the only
// injection boundary vibe-validate has, since git is never invoked
// through a shell.
func ValidateArg(a string) error {
	if a == "" {
		return fmt.Errorf("empty argument")
	}
	for _, r := range a {
		switch r {
		case ';', '&', '|', '`', '$', '(', ')', '{', '}', '[', ']', '<', '>', '!', '"', '\\':
			return fmt.Errorf("contains disallowed character %q", r)
		case 0:
			return fmt.Errorf("contains a null byte")
		case '\n', '\r':
			return fmt.Errorf("contains a newline")
		}
	}
	return nil
}

// ValidateRef additionally forbids leading "-" (so a ref can never be
// mistaken for a flag) and ".." / "//" sequences.
func ValidateRef(ref string) error {
	if err := ValidateArg(ref); err != nil {
		return err
	}
	if ref[0] == '-' {
		return fmt.Errorf("ref %q must not start with '-'", ref)
	}
	for i := 0; i+1 < len(ref); i++ {
		if ref[i] == '.' && ref[i+1] == '.' {
			return fmt.Errorf("ref %q must not contain '..'", ref)
		}
		if ref[i] == '/' && ref[i+1] == '/' {
			return fmt.Errorf("ref %q must not contain '//'", ref)
		}
	}
	return nil
}

// ValidateNotesRef validates a notes ref like refs/notes/vibe-validate/validate,
// additionally forbidding whitespace since notes refs are embedded in
// human-readable output and cache keys.
func ValidateNotesRef(ref string) error {
	if err := ValidateRef(ref); err != nil {
		return err
	}
	for _, r := range ref {
		if r == ' ' || r == '\t' {
			return fmt.Errorf("notes ref %q must not contain whitespace", ref)
		}
	}
	return nil
}
