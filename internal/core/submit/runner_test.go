package submit

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"internhunt/internal/core/ats"
)

// stubFiller returns a canned status and records every application it saw.
type stubFiller struct {
	platform ats.Platform
	status   Status
	delay    time.Duration
	panics   bool

	mu   sync.Mutex
	apps []Application
}

func (f *stubFiller) Fill(ctx context.Context, _ BrowserProvider, target Target, app Application) Result {
	f.mu.Lock()
	f.apps = append(f.apps, app)
	f.mu.Unlock()
	if f.panics {
		panic("selector table corrupted")
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
		}
	}
	return Result{
		Platform: f.platform,
		Status:   f.status,
		FinalURL: target.URL,
		Title:    target.Title,
		Company:  target.Company,
		URL:      target.URL,
	}
}

func (f *stubFiller) seen() []Application {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Application, len(f.apps))
	copy(out, f.apps)
	return out
}

func stubFactory(fillers map[ats.Platform]Filler) FillerFactory {
	return func(platform ats.Platform) Filler {
		if f, ok := fillers[platform]; ok {
			return f
		}
		return unsupportedFiller{platform: platform}
	}
}

func testRunnerConfig() Config {
	return Config{Workers: 2, TargetTimeout: 2 * time.Second}
}

func testIdentity() Identity {
	return Identity{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Phone: "+1 555 0100"}
}

func TestRunOneResultPerTargetInOrder(t *testing.T) {
	gh := &stubFiller{platform: ats.PlatformGreenhouse, status: StatusSubmitted}
	lv := &stubFiller{platform: ats.PlatformLever, status: StatusSubmitted}
	r := NewRunner(testRunnerConfig(), stubFactory(map[ats.Platform]Filler{
		ats.PlatformGreenhouse: gh,
		ats.PlatformLever:      lv,
	}))

	batch := Batch{
		Identity: testIdentity(),
		Targets: []Target{
			{Title: "SWE Intern", Company: "acme", URL: "https://boards.greenhouse.io/acme/jobs/4012345"},
			{Title: "Data Intern", Company: "globex", URL: "https://jobs.lever.co/globex/abc-123"},
			{Title: "PM Intern", Company: "initech", URL: "https://careers-initech.icims.com/jobs/991/intern"},
		},
	}
	results := r.Run(context.Background(), batch)

	require.Len(t, results, 3)
	assert.Equal(t, "https://boards.greenhouse.io/acme/jobs/4012345", results[0].URL)
	assert.Equal(t, StatusSubmitted, results[0].Status)
	assert.Equal(t, ats.PlatformGreenhouse, results[0].Platform)
	assert.Equal(t, StatusSubmitted, results[1].Status)
	assert.Equal(t, ats.PlatformLever, results[1].Platform)
	// icims has no scripted filler and falls through to the manual fallback.
	assert.Equal(t, StatusManualRequired, results[2].Status)
	assert.Equal(t, ats.PlatformICIMS, results[2].Platform)
	assert.Equal(t, "PM Intern", results[2].Title)
}

func TestRunUnsupportedPlatformNeverTouchesBrowser(t *testing.T) {
	launches := 0
	factory := NewFillerFactory(DefaultSelectors(), nil)
	r := NewRunner(testRunnerConfig(), factory)

	// The runner hands every filler the shared session provider; a manual
	// fallback must never invoke it. Run through submitOne directly so the
	// provider can be observed.
	res := r.submitOne(context.Background(), func() (playwright.Browser, error) {
		launches++
		return nil, nil
	}, Target{Title: "Intern", URL: "https://example.com/careers/123"}, Batch{Identity: testIdentity()}, "")

	assert.Equal(t, StatusManualRequired, res.Status)
	assert.Equal(t, ats.PlatformOther, res.Platform)
	assert.Zero(t, launches)
}

func TestRunTimesOutSlowTarget(t *testing.T) {
	slow := &stubFiller{platform: ats.PlatformGreenhouse, status: StatusSubmitted, delay: 5 * time.Second}
	fast := &stubFiller{platform: ats.PlatformLever, status: StatusSubmitted}
	r := NewRunner(Config{Workers: 2, TargetTimeout: 100 * time.Millisecond}, stubFactory(map[ats.Platform]Filler{
		ats.PlatformGreenhouse: slow,
		ats.PlatformLever:      fast,
	}))

	batch := Batch{
		Identity: testIdentity(),
		Targets: []Target{
			{URL: "https://boards.greenhouse.io/acme/jobs/4012345"},
			{URL: "https://jobs.lever.co/globex/abc-123"},
		},
	}
	results := r.Run(context.Background(), batch)

	require.Len(t, results, 2)
	assert.Equal(t, StatusError, results[0].Status)
	assert.Equal(t, "timeout", results[0].Reason)
	assert.Equal(t, StatusSubmitted, results[1].Status)
}

func TestRunRecoversFillerPanic(t *testing.T) {
	r := NewRunner(testRunnerConfig(), stubFactory(map[ats.Platform]Filler{
		ats.PlatformGreenhouse: &stubFiller{platform: ats.PlatformGreenhouse, panics: true},
	}))

	results := r.Run(context.Background(), Batch{
		Identity: testIdentity(),
		Targets:  []Target{{URL: "https://boards.greenhouse.io/acme/jobs/4012345"}},
	})

	require.Len(t, results, 1)
	assert.Equal(t, StatusError, results[0].Status)
	assert.Contains(t, results[0].Reason, "panic")
}

func TestRunEmptyBatch(t *testing.T) {
	r := NewRunner(testRunnerConfig(), stubFactory(nil))
	results := r.Run(context.Background(), Batch{Identity: testIdentity()})
	assert.Empty(t, results)
}

func TestRunTruncatesCoverText(t *testing.T) {
	gh := &stubFiller{platform: ats.PlatformGreenhouse, status: StatusSubmitted}
	r := NewRunner(testRunnerConfig(), stubFactory(map[ats.Platform]Filler{ats.PlatformGreenhouse: gh}))

	batch := Batch{
		Identity:  testIdentity(),
		CoverText: strings.Repeat("motivated ", 1000), // 10k runes
		Targets:   []Target{{URL: "https://boards.greenhouse.io/acme/jobs/4012345"}},
	}
	r.Run(context.Background(), batch)

	apps := gh.seen()
	require.Len(t, apps, 1)
	assert.Len(t, []rune(apps[0].CoverText), maxCoverRunes)
	assert.True(t, strings.HasPrefix(apps[0].CoverText, "motivated"))
}

// resumeCheckingFiller asserts the résumé exists on disk while the attempt
// is in flight.
type resumeCheckingFiller struct {
	t    *testing.T
	path string
}

func (f *resumeCheckingFiller) Fill(_ context.Context, _ BrowserProvider, target Target, app Application) Result {
	f.path = app.ResumePath
	if app.ResumePath == "" {
		f.t.Error("expected a materialized resume path")
	} else if _, err := os.Stat(app.ResumePath); err != nil {
		f.t.Errorf("resume file missing during fill: %v", err)
	}
	return Result{Platform: ats.PlatformGreenhouse, Status: StatusSubmitted, URL: target.URL, FinalURL: target.URL}
}

func TestRunMaterializesResumeForAttemptOnly(t *testing.T) {
	filler := &resumeCheckingFiller{t: t}
	r := NewRunner(testRunnerConfig(), stubFactory(map[ats.Platform]Filler{ats.PlatformGreenhouse: filler}))

	batch := Batch{
		Identity:       testIdentity(),
		ResumeBytes:    []byte("%PDF-1.4 fake"),
		ResumeFilename: "ada-lovelace.pdf",
		Targets:        []Target{{URL: "https://boards.greenhouse.io/acme/jobs/4012345"}},
	}
	results := r.Run(context.Background(), batch)

	require.Len(t, results, 1)
	assert.Equal(t, StatusSubmitted, results[0].Status)
	require.NotEmpty(t, filler.path)
	_, err := os.Stat(filler.path)
	assert.True(t, os.IsNotExist(err), "resume temp file should be removed after the run")
}

func TestRunWithoutResumeLeavesPathEmpty(t *testing.T) {
	gh := &stubFiller{platform: ats.PlatformGreenhouse, status: StatusSubmitted}
	r := NewRunner(testRunnerConfig(), stubFactory(map[ats.Platform]Filler{ats.PlatformGreenhouse: gh}))

	r.Run(context.Background(), Batch{
		Identity: testIdentity(),
		Targets:  []Target{{URL: "https://boards.greenhouse.io/acme/jobs/4012345"}},
	})

	apps := gh.seen()
	require.Len(t, apps, 1)
	assert.Empty(t, apps[0].ResumePath)
}

func TestMaterializeResume(t *testing.T) {
	t.Run("keeps the filename extension", func(t *testing.T) {
		path, cleanup, err := materializeResume([]byte("doc"), "cv.docx")
		require.NoError(t, err)
		defer cleanup()
		assert.True(t, strings.HasSuffix(path, ".docx"))

		b, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "doc", string(b))
	})

	t.Run("defaults to pdf", func(t *testing.T) {
		path, cleanup, err := materializeResume([]byte("doc"), "")
		require.NoError(t, err)
		defer cleanup()
		assert.True(t, strings.HasSuffix(path, ".pdf"))
	})

	t.Run("cleanup removes the file", func(t *testing.T) {
		path, cleanup, err := materializeResume([]byte("doc"), "cv.pdf")
		require.NoError(t, err)
		cleanup()
		_, err = os.Stat(path)
		assert.True(t, os.IsNotExist(err))
	})
}

func TestTruncateCover(t *testing.T) {
	assert.Equal(t, "short", truncateCover("short"))
	long := strings.Repeat("x", maxCoverRunes+7)
	assert.Len(t, truncateCover(long), maxCoverRunes)
}
