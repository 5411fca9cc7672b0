package build

import "testing"

func TestString(t *testing.T) {
	oldVersion, oldCommit := Version, Commit
	t.Cleanup(func() { Version, Commit = oldVersion, oldCommit })

	Version, Commit = "v1.2.0", "abc123"
	if got, want := String(), "splashgen v1.2.0 (commit abc123, branch unknown)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
