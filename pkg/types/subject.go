package types

// StdinPath is the display path used for a subject read from standard input.
const StdinPath = "<stdin>"

// Subject is one unit of search input: a file path or standard input.
type Subject struct {
	path  string
	stdin bool
}

// NewPathSubject returns a subject for the file at path.
func NewPathSubject(path string) Subject {
	return Subject{path: path}
}

// NewStdinSubject returns a subject for standard input.
func NewStdinSubject() Subject {
	return Subject{path: StdinPath, stdin: true}
}

// Path returns the subject's path. For stdin this is StdinPath.
func (s Subject) Path() string {
	return s.path
}

// IsStdin reports whether the subject is standard input.
func (s Subject) IsStdin() bool {
	return s.stdin
}

// String returns the display path.
func (s Subject) String() string {
	return s.path
}
