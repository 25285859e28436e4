package exec

import "github.com/rpmcore/rpmcore/cpiopayload"

// Call records one invocation a MockProcessHost observed, for test
// assertions on ordering and arguments without touching the filesystem.
type Call struct {
	Kind   string // "chroot", "script", "extract", "fork"
	Detail string
}

// MockProcessHost is a ProcessHost that records every call. Chroot,
// RunScript and Extract do nothing beyond that (returning ScriptErr /
// ExtractErr); Fork runs fn inline in the calling goroutine.
type MockProcessHost struct {
	Calls      []Call
	ScriptErr  error
	ExtractErr error
}

func NewMockProcessHost() *MockProcessHost { return &MockProcessHost{} }

func (m *MockProcessHost) Chroot(dir string) error {
	m.Calls = append(m.Calls, Call{Kind: "chroot", Detail: dir})
	return nil
}

func (m *MockProcessHost) RunScript(prog, script string, args ...string) error {
	m.Calls = append(m.Calls, Call{Kind: "script", Detail: prog})
	return m.ScriptErr
}

func (m *MockProcessHost) Extract(r *cpiopayload.Reader, destDir string, files map[string]cpiopayload.FileInfo, isSource bool) error {
	m.Calls = append(m.Calls, Call{Kind: "extract", Detail: destDir})
	return m.ExtractErr
}

func (m *MockProcessHost) Fork(fn func() error) error {
	m.Calls = append(m.Calls, Call{Kind: "fork"})
	return fn()
}
