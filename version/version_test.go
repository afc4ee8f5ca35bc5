package version

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestGetVersionInfo(t *testing.T) {
	info := GetVersionInfo()
	if info.GoVersion == "" {
		t.Error("GoVersion is empty")
	}
	if info.Version == "" || info.Revision == "" || info.BuiltAt == "" {
		t.Errorf("incomplete info: %+v", info)
	}
}

func TestInfoFormats(t *testing.T) {
	info := Info{Version: "1.2.3", Revision: "abc1234", BuiltAt: "now", Modified: true, GoVersion: "go1.24"}
	s := info.String()
	for _, want := range []string{"Version: 1.2.3", "Revision: abc1234 (modified)", "Go Version: go1.24"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}

	out, err := info.JSON()
	if err != nil {
		t.Fatal(err)
	}
	var back Info
	if err := json.Unmarshal([]byte(out), &back); err != nil {
		t.Fatal(err)
	}
	if back != info {
		t.Errorf("JSON round trip = %+v", back)
	}
}

func TestShortRevision(t *testing.T) {
	if got := shortRevision("0123456789abcdef"); got != "0123456" {
		t.Errorf("shortRevision = %q", got)
	}
	if got := shortRevision("abc"); got != "abc" {
		t.Errorf("shortRevision = %q", got)
	}
}
