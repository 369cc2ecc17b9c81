package submit

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"internhunt/internal/core/ats"
	"internhunt/internal/logger"

	"github.com/playwright-community/playwright-go"
)

// BrowserProvider lazily yields the shared batch browser. Fillers that never
// render (unsupported platforms) never invoke it, so an all-manual batch
// launches no browser at all.
type BrowserProvider func() (playwright.Browser, error)

// Filler drives one application form. Implementations never panic and never
// return an error; every outcome, including internal failure, is a Result.
type Filler interface {
	Fill(ctx context.Context, browser BrowserProvider, target Target, app Application) Result
}

// FillerFactory dispatches a platform to its filler variant.
type FillerFactory func(platform ats.Platform) Filler

// NewFillerFactory builds the production dispatch: scripted fillers for the
// platforms with a known form layout, the manual fallback for everything
// else. Adding a platform means adding a selector set and a case here.
func NewFillerFactory(selectors Selectors, proofs *Artifacts) FillerFactory {
	log := logger.New("FormFiller")
	return func(platform ats.Platform) Filler {
		switch platform {
		case ats.PlatformGreenhouse, ats.PlatformLever:
			return &scriptedFiller{platform: platform, selectors: selectors[platform], proofs: proofs, log: log}
		default:
			return unsupportedFiller{platform: platform}
		}
	}
}

const (
	navTimeoutMs    = 30000
	fieldTimeoutMs  = 5000
	submitTimeoutMs = 10000
	settleTimeoutMs = 10000
	proofTimeoutMs  = 10000
)

// scriptedFiller runs the best-effort fill sequence against a hosted ATS
// form: navigate, attach the résumé, fill whichever identity fields exist,
// click submit, record where the page landed.
type scriptedFiller struct {
	platform  ats.Platform
	selectors SelectorSet
	proofs    *Artifacts
	log       *logger.Logger
}

func (f *scriptedFiller) Fill(ctx context.Context, browser BrowserProvider, target Target, app Application) (res Result) {
	res = errorResult(f.platform, target, "")
	defer func() {
		if rec := recover(); rec != nil {
			res = errorResult(f.platform, target, fmt.Sprintf("panic: %v", rec))
		}
	}()
	if err := ctx.Err(); err != nil {
		res.Reason = "cancelled: " + err.Error()
		return res
	}

	b, err := browser()
	if err != nil {
		res.Reason = "browser: " + err.Error()
		return res
	}
	bctx, err := b.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: 1920, Height: 1080},
	})
	if err != nil {
		res.Reason = "browser context: " + err.Error()
		return res
	}
	defer bctx.Close()

	page, err := bctx.NewPage()
	if err != nil {
		res.Reason = "page: " + err.Error()
		return res
	}

	f.log.LogInfof("Filling %s application at %s", f.platform, target.URL)
	if _, err := page.Goto(target.URL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(navTimeoutMs),
	}); err != nil {
		res.Reason = "navigation: " + err.Error()
		return res
	}
	// Hosted boards render the form client-side; give them a beat.
	page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: playwright.Float(settleTimeoutMs),
	})

	f.setResume(page, f.selectors.Resume, app.ResumePath)
	f.fillField(page, f.selectors.FirstName, app.Identity.FirstName)
	f.fillField(page, f.selectors.LastName, app.Identity.LastName)
	f.fillField(page, f.selectors.FullName, strings.TrimSpace(app.Identity.FirstName+" "+app.Identity.LastName))
	f.fillField(page, f.selectors.Email, app.Identity.Email)
	f.fillField(page, f.selectors.Phone, app.Identity.Phone)
	f.fillField(page, f.selectors.Cover, app.CoverText)

	if err := f.clickSubmit(page, f.selectors.Submit); err != nil {
		res.Reason = "submit: " + err.Error()
		res.FinalURL = page.URL()
		f.capture(page, target, &res)
		return res
	}
	page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: playwright.Float(settleTimeoutMs),
	})

	res.Status = StatusSubmitted
	res.Reason = ""
	res.FinalURL = page.URL()
	f.capture(page, target, &res)
	f.log.LogSuccessf("Submitted %s application for %q, landed on %s", f.platform, target.Title, res.FinalURL)
	return res
}

// fillField fills the first visible control among the candidates. Fields
// whose controls are missing are skipped silently.
func (f *scriptedFiller) fillField(page playwright.Page, candidates []string, value string) {
	if value == "" {
		return
	}
	for _, sel := range candidates {
		loc := page.Locator(sel).First()
		if visible, err := loc.IsVisible(); err != nil || !visible {
			continue
		}
		if err := loc.Fill(value, playwright.LocatorFillOptions{Timeout: playwright.Float(fieldTimeoutMs)}); err != nil {
			f.log.LogDebugf("Fill %s failed: %v", sel, err)
			continue
		}
		return
	}
}

// setResume attaches the résumé file to the first matching upload control.
// Upload inputs are routinely hidden behind styled drop zones, so presence
// is checked instead of visibility.
func (f *scriptedFiller) setResume(page playwright.Page, candidates []string, resumePath string) {
	if resumePath == "" {
		return
	}
	buf, err := os.ReadFile(resumePath)
	if err != nil {
		f.log.LogWarnf("Resume read failed: %v", err)
		return
	}
	file := playwright.InputFile{
		Name:     filepath.Base(resumePath),
		MimeType: resumeMime(resumePath),
		Buffer:   buf,
	}
	for _, sel := range candidates {
		if n, err := page.Locator(sel).Count(); err != nil || n == 0 {
			continue
		}
		if err := page.Locator(sel).First().SetInputFiles([]playwright.InputFile{file}); err != nil {
			f.log.LogDebugf("Resume attach on %s failed: %v", sel, err)
			continue
		}
		return
	}
	f.log.LogDebugf("No resume control matched on %s", f.platform)
}

// clickSubmit clicks the first submit control that exists. The first match
// decides the outcome; later candidates are alternates for absent controls,
// not retries for failed clicks.
func (f *scriptedFiller) clickSubmit(page playwright.Page, candidates []string) error {
	for _, sel := range candidates {
		if n, err := page.Locator(sel).Count(); err != nil || n == 0 {
			continue
		}
		return page.Locator(sel).First().Click(playwright.LocatorClickOptions{Timeout: playwright.Float(submitTimeoutMs)})
	}
	return fmt.Errorf("no submit control matched")
}

// capture stores a full-page screenshot of the final page state. Failures
// are logged and dropped; the proof never changes the submission status.
func (f *scriptedFiller) capture(page playwright.Page, target Target, res *Result) {
	if f.proofs == nil {
		return
	}
	buf, err := page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(true),
		Timeout:  playwright.Float(proofTimeoutMs),
	})
	if err != nil {
		f.log.LogWarnf("Proof screenshot failed for %s: %v", target.URL, err)
		return
	}
	public, err := f.proofs.SavePNG(proofName(target.URL), buf)
	if err != nil {
		f.log.LogWarnf("Proof store failed for %s: %v", target.URL, err)
		return
	}
	res.ProofURL = public
}

func resumeMime(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if m := mime.TypeByExtension(ext); m != "" {
		return m
	}
	switch ext {
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/octet-stream"
	}
}

// unsupportedFiller covers platforms with no scripted sequence. It performs
// no navigation at all; the applicant gets the target back for a manual pass.
type unsupportedFiller struct {
	platform ats.Platform
}

func (f unsupportedFiller) Fill(_ context.Context, _ BrowserProvider, target Target, _ Application) Result {
	return Result{
		Platform: f.platform,
		Status:   StatusManualRequired,
		FinalURL: target.URL,
		Title:    target.Title,
		Company:  target.Company,
		URL:      target.URL,
	}
}
