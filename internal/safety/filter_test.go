package safety_test

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"seopilot/internal/config"
	"seopilot/internal/logging"
	"seopilot/internal/safety"
)

func TestSoftReplaceRespectsWordBoundaries(t *testing.T) {
	f := safety.New([]config.SoftReplacement{{From: "cam", To: "stream"}}, "", nil)
	got, blocked := f.Apply("camgirl cam")
	if blocked {
		t.Fatal("did not expect block")
	}
	if got != "camgirl stream" {
		t.Fatalf("got %q want %q", got, "camgirl stream")
	}
	if got := f.Clean("camera CAM Cam."); got != "camera stream stream." {
		t.Fatalf("got %q", got)
	}
}

func TestSoftReplaceRunsInOrderAndCollapsesWhitespace(t *testing.T) {
	cfg := config.Default()
	f := safety.NewFromConfig(&cfg, nil)

	got := f.Clean("  Cam Girl   after dark  webcam ")
	if got != "live creator late night live stream" {
		t.Fatalf("got %q", got)
	}
}

func TestSoftReplaceTreatsReplacementLiterally(t *testing.T) {
	f := safety.New([]config.SoftReplacement{{From: "price", To: "$1 off"}}, "", nil)
	if got := f.Clean("best price"); got != "best $1 off" {
		t.Fatalf("got %q", got)
	}
}

func TestHardBlock(t *testing.T) {
	f := safety.New(nil, `\bforbidden\b`, nil)
	got, blocked := f.Apply("a forbidden word")
	if !blocked || got != "" {
		t.Fatalf("expected blocked empty output, got %q blocked=%v", got, blocked)
	}
	if got := f.Clean("A FORBIDDEN word"); got != "" {
		t.Fatalf("hard block must be case-insensitive, got %q", got)
	}
	if got := f.Clean("forbiddenness is fine"); got != "forbiddenness is fine" {
		t.Fatalf("unexpected block: %q", got)
	}
}

func TestHardBlockSeesSoftReplacedText(t *testing.T) {
	f := safety.New([]config.SoftReplacement{{From: "cam", To: "stream"}}, `cam`, nil)
	if got := f.Clean("cam show"); got != "stream show" {
		t.Fatalf("hard stage should run after soft stage, got %q", got)
	}
}

func TestMalformedPatternPassesThroughAndWarnsOnce(t *testing.T) {
	hub := logging.NewDiagnosticsHub(10)
	logger, err := logging.New(logging.Options{
		OutputPaths: []string{filepath.Join(t.TempDir(), "out.log")},
		Diagnostics: hub,
	})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}

	f := safety.New(nil, "(unclosed", logger)
	var malformed *safety.MalformedPatternError
	if !errors.As(f.PatternError(), &malformed) {
		t.Fatalf("expected MalformedPatternError, got %v", f.PatternError())
	}

	for i := 0; i < 3; i++ {
		got, blocked := f.Apply("  keep   me ")
		if blocked || got != "keep me" {
			t.Fatalf("malformed pattern should pass text through, got %q blocked=%v", got, blocked)
		}
	}

	events := hub.Tail(0)
	if len(events) != 1 {
		t.Fatalf("expected exactly one warning, got %d", len(events))
	}
	if !strings.Contains(events[0].Line(), "event_type=safety_pattern_invalid") {
		t.Fatalf("unexpected warning line %q", events[0].Line())
	}
}

func TestNilFilterOnlyCollapsesWhitespace(t *testing.T) {
	var f *safety.Filter
	if got, blocked := f.Apply(" a  b "); got != "a b" || blocked {
		t.Fatalf("got %q blocked=%v", got, blocked)
	}
}
