package log_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/guabee/golomb/golombv2/log"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	return &buf
}

func TestDefaultLevelFiltersDebug(t *testing.T) {
	buf := capture(t)

	logger := log.NewLoggerEntry("filter-default")
	logger.Debugf("hidden %d", 1)
	logger.Infof("shown %d", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line leaked at default level:\n%s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("info line missing:\n%s", out)
	}
	if !strings.Contains(out, "module=filter-default") {
		t.Errorf("module field missing:\n%s", out)
	}
}

func TestModuleOverride(t *testing.T) {
	buf := capture(t)

	log.SetModuleLevel("noisy-module", "debug")
	noisy := log.NewLoggerEntry("noisy-module")
	quiet := log.NewLoggerEntry("quiet-module")

	noisy.Debugf("noisy-debug")
	quiet.Debugf("quiet-debug")

	out := buf.String()
	if !strings.Contains(out, "noisy-debug") {
		t.Errorf("override did not enable debug:\n%s", out)
	}
	if strings.Contains(out, "quiet-debug") {
		t.Errorf("override leaked onto other module:\n%s", out)
	}
}

func TestOverrideAppliesToExistingLogger(t *testing.T) {
	buf := capture(t)

	logger := log.NewLoggerEntry("late-override")
	logger.Debugf("before")
	log.SetModuleLevel("late-override", "debug")
	logger.Debugf("after")

	out := buf.String()
	if strings.Contains(out, "before") {
		t.Errorf("debug line before the override leaked:\n%s", out)
	}
	if !strings.Contains(out, "after") {
		t.Errorf("existing logger ignored the override:\n%s", out)
	}
}

func TestPrefixPattern(t *testing.T) {
	buf := capture(t)

	log.SetModuleLevel("wire-*", "debug")
	log.NewLoggerEntry("wire-hub").Debugf("hub-debug")
	log.NewLoggerEntry("wire-member").Debugf("member-debug")
	log.NewLoggerEntry("other").Debugf("other-debug")

	out := buf.String()
	if !strings.Contains(out, "hub-debug") || !strings.Contains(out, "member-debug") {
		t.Errorf("prefix pattern missed a module:\n%s", out)
	}
	if strings.Contains(out, "other-debug") {
		t.Errorf("prefix pattern matched too much:\n%s", out)
	}
}

func TestSetDefaultLevelKeepsOverrides(t *testing.T) {
	buf := capture(t)
	defer log.SetDefaultLevel("info")

	log.SetModuleLevel("pinned", "debug")
	pinned := log.NewLoggerEntry("pinned")
	plain := log.NewLoggerEntry("plain")

	log.SetDefaultLevel("warn")
	pinned.Debugf("pinned-debug")
	plain.Infof("plain-info")

	out := buf.String()
	if !strings.Contains(out, "pinned-debug") {
		t.Errorf("override lost after default change:\n%s", out)
	}
	if strings.Contains(out, "plain-info") {
		t.Errorf("info line leaked at warn default:\n%s", out)
	}
}

func TestBadLevelNameIgnored(t *testing.T) {
	buf := capture(t)

	log.SetDefaultLevel("extremely-verbose")
	log.SetModuleLevel("robust", "nope")
	log.NewLoggerEntry("robust").Infof("still-info")

	if !strings.Contains(buf.String(), "still-info") {
		t.Errorf("bad level name changed behavior:\n%s", buf.String())
	}
}
