package buildinfo

import (
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	old := Version
	Version = "1.2.3"
	defer func() { Version = old }()

	i := Info()
	if i["version"] != "1.2.3" {
		t.Fatalf("version = %q", i["version"])
	}
	if !strings.HasPrefix(String(), "1.2.3") {
		t.Fatalf("String() = %q", String())
	}
}
