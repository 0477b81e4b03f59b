package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/constify/pkg/commit"
	"github.com/walteh/constify/pkg/oracle"
)

// stubOracle replays a scripted sequence of responses and counts calls.
type stubOracle struct {
	mu      sync.Mutex
	calls   int32
	replies []stubReply
}

type stubReply struct {
	text string
	err  error
}

func (s *stubOracle) Rewrite(ctx context.Context, req oracle.Request) (string, error) {
	n := atomic.AddInt32(&s.calls, 1)

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.replies) == 0 {
		return "", oracle.Fatal(assert.AnError)
	}
	idx := int(n) - 1
	if idx >= len(s.replies) {
		idx = len(s.replies) - 1
	}
	r := s.replies[idx]
	return r.text, r.err
}

func (s *stubOracle) callCount() int {
	return int(atomic.LoadInt32(&s.calls))
}

// alwaysOracle returns the same reply for every call.
func alwaysOracle(text string, err error) *stubOracle {
	return &stubOracle{replies: []stubReply{{text: text, err: err}}}
}

const rewrittenSource = `public class A {
    public static final String GREETING = "hi"; // extracted
}
`

func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newPipeline(t *testing.T, opts Options) *Pipeline {
	t.Helper()
	if opts.Writer == nil {
		opts.Writer = commit.NewWriter(commit.DryRun)
	}
	p, err := New(opts)
	require.NoError(t, err)
	p.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return p
}

func TestPipeline_EligibleFileDryRun(t *testing.T) {
	// scenario: one real literal, one in a line comment, one in a block
	// comment; only the real one makes the file eligible
	src := "String s = \"hi\"; // \"not a literal\"\n/* \"also not\" */\n"
	path := writeSource(t, "A.java", src)

	orc := alwaysOracle(rewrittenSource, nil)
	p := newPipeline(t, Options{Oracle: orc, Writer: commit.NewWriter(commit.DryRun), Retries: 3})

	results := p.Run(context.Background(), []string{path})
	require.Len(t, results, 1)
	assert.Equal(t, Written, results[0].Outcome)
	assert.Equal(t, 1, results[0].Attempts)
	assert.Equal(t, path+".new", results[0].WrittenPath)
	assert.Equal(t, 1, orc.callCount())

	// original untouched, sibling holds the rewrite
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, src, string(got))

	got, err = os.ReadFile(path + ".new")
	require.NoError(t, err)
	assert.Equal(t, rewrittenSource, string(got))
}

func TestPipeline_IneligibleFileSkipped(t *testing.T) {
	path := writeSource(t, "B.java", "int x = 42;\nreturn x;\n")

	orc := alwaysOracle(rewrittenSource, nil)
	p := newPipeline(t, Options{Oracle: orc, Retries: 3})

	results := p.Run(context.Background(), []string{path})
	require.Len(t, results, 1)
	assert.Equal(t, Skipped, results[0].Outcome)
	assert.Equal(t, 0, orc.callCount(), "no oracle call for ineligible file")

	// no writes of any kind
	_, err := os.Stat(path + ".new")
	assert.True(t, os.IsNotExist(err))
}

func TestPipeline_TransientThenSuccess(t *testing.T) {
	// two 500s then a good response with retries=3 ends Written after
	// exactly three attempts
	path := writeSource(t, "C.java", `String s = "hi";`)

	orc := &stubOracle{replies: []stubReply{
		{err: oracle.Transient(assert.AnError)},
		{err: oracle.Transient(assert.AnError)},
		{text: rewrittenSource},
	}}
	p := newPipeline(t, Options{Oracle: orc, Retries: 3})

	results := p.Run(context.Background(), []string{path})
	require.Len(t, results, 1)
	assert.Equal(t, Written, results[0].Outcome)
	assert.Equal(t, 3, results[0].Attempts)
	assert.Equal(t, 3, orc.callCount())
}

func TestPipeline_RetryExhaustion(t *testing.T) {
	path := writeSource(t, "D.java", `String s = "hi";`)

	orc := alwaysOracle("", oracle.Transient(assert.AnError))
	p := newPipeline(t, Options{Oracle: orc, Retries: 3})

	results := p.Run(context.Background(), []string{path})
	require.Len(t, results, 1)
	assert.Equal(t, Failed, results[0].Outcome)
	assert.Error(t, results[0].Err)
	assert.Equal(t, 3, orc.callCount(), "exactly retries total attempts")
}

func TestPipeline_FatalFailureNoRetry(t *testing.T) {
	path := writeSource(t, "E.java", `String s = "hi";`)

	orc := alwaysOracle("", oracle.Fatal(assert.AnError))
	p := newPipeline(t, Options{Oracle: orc, Retries: 3})

	results := p.Run(context.Background(), []string{path})
	require.Len(t, results, 1)
	assert.Equal(t, Failed, results[0].Outcome)
	assert.Equal(t, 1, orc.callCount(), "fatal failure must not retry")
}

func TestPipeline_UnreadableFileFails(t *testing.T) {
	orc := alwaysOracle(rewrittenSource, nil)
	p := newPipeline(t, Options{Oracle: orc, Retries: 3})

	results := p.Run(context.Background(), []string{filepath.Join(t.TempDir(), "missing.java")})
	require.Len(t, results, 1)
	assert.Equal(t, Failed, results[0].Outcome)
	assert.Equal(t, 0, orc.callCount())
}

func TestPipeline_FailureIsolation(t *testing.T) {
	// one unreadable file must not affect its siblings
	good := writeSource(t, "Good.java", `String s = "hi";`)
	skip := writeSource(t, "Skip.java", "int x;")
	bad := filepath.Join(t.TempDir(), "gone.java")

	orc := alwaysOracle(rewrittenSource, nil)
	p := newPipeline(t, Options{Oracle: orc, Retries: 3, Workers: 2})

	results := p.Run(context.Background(), []string{good, skip, bad})
	require.Len(t, results, 3)

	byPath := map[string]Result{}
	for _, r := range results {
		byPath[r.Path] = r
	}
	assert.Equal(t, Written, byPath[good].Outcome)
	assert.Equal(t, Skipped, byPath[skip].Outcome)
	assert.Equal(t, Failed, byPath[bad].Outcome)
}

func TestPipeline_CompletenessUnderConcurrency(t *testing.T) {
	var paths []string
	for i := 0; i < 40; i++ {
		name := "F.java"
		content := `String s = "hi";`
		if i%3 == 0 {
			content = "int x;"
		}
		paths = append(paths, writeSource(t, name, content))
	}

	orc := alwaysOracle(rewrittenSource, nil)
	p := newPipeline(t, Options{Oracle: orc, Retries: 2, Workers: 8})

	results := p.Run(context.Background(), paths)
	require.Len(t, results, len(paths))

	seen := map[string]int{}
	for _, r := range results {
		seen[r.Path]++
	}
	for _, path := range paths {
		assert.Equal(t, 1, seen[path], "exactly one result per file: %s", path)
	}
}

func TestPipeline_ValidateStrictRejectsLeftoverLiterals(t *testing.T) {
	path := writeSource(t, "G.java", `String s = "hi";`)

	// rewrite still carries a literal outside comments
	orc := alwaysOracle(`public static final String S = "hi";`, nil)
	p := newPipeline(t, Options{Oracle: orc, Retries: 1, Validation: ValidateStrict})

	results := p.Run(context.Background(), []string{path})
	require.Len(t, results, 1)
	assert.Equal(t, Failed, results[0].Outcome)
}

func TestPipeline_ValidateWarnAcceptsLeftoverLiterals(t *testing.T) {
	path := writeSource(t, "H.java", `String s = "hi";`)

	orc := alwaysOracle(`public static final String S = "hi";`, nil)
	p := newPipeline(t, Options{Oracle: orc, Retries: 1, Validation: ValidateWarn})

	results := p.Run(context.Background(), []string{path})
	require.Len(t, results, 1)
	assert.Equal(t, Written, results[0].Outcome)
}

func TestPipeline_CancelledContextRecordsRemaining(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := writeSource(t, "I.java", `String s = "hi";`)
	orc := alwaysOracle(rewrittenSource, nil)
	p := newPipeline(t, Options{Oracle: orc, Retries: 1})

	results := p.Run(ctx, []string{path})
	require.Len(t, results, 1)
	assert.Equal(t, Failed, results[0].Outcome)
	assert.Equal(t, 0, orc.callCount())
}

func TestPipeline_ReporterSeesEveryFile(t *testing.T) {
	good := writeSource(t, "J.java", `String s = "hi";`)
	skip := writeSource(t, "K.java", "int x;")

	var mu sync.Mutex
	var reported []Result
	rep := reporterFunc(func(ctx context.Context, r Result) {
		mu.Lock()
		defer mu.Unlock()
		reported = append(reported, r)
	})

	orc := alwaysOracle(rewrittenSource, nil)
	p := newPipeline(t, Options{Oracle: orc, Retries: 1, Workers: 2, Reporter: rep})

	p.Run(context.Background(), []string{good, skip})
	assert.Len(t, reported, 2)
}

type reporterFunc func(ctx context.Context, r Result)

func (f reporterFunc) FileDone(ctx context.Context, r Result) { f(ctx, r) }

func TestNew_Validation(t *testing.T) {
	_, err := New(Options{Writer: commit.NewWriter(commit.DryRun)})
	require.Error(t, err, "oracle is required")

	_, err = New(Options{Oracle: alwaysOracle("x", nil)})
	require.Error(t, err, "writer is required")
}

func TestSummarize(t *testing.T) {
	results := []Result{
		{Outcome: Written},
		{Outcome: Skipped},
		{Outcome: Skipped},
		{Outcome: Failed},
	}
	s := Summarize(results)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 1, s.Written)
	assert.Equal(t, 2, s.Skipped)
	assert.Equal(t, 1, s.Failed)
	assert.False(t, s.Succeeded())

	assert.True(t, Summarize([]Result{{Outcome: Written}}).Succeeded())
	assert.True(t, Summarize(nil).Succeeded())
}
