package cli

import (
	"io"
	"testing"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()

	want := []string{"install", "uninstall", "search", "list", "info", "verify", "graph", "plugins", "cache", "completion"}
	for _, name := range want {
		found := false
		for _, cmd := range root.Commands() {
			if cmd.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("root command is missing %q", name)
		}
	}
}

func TestFormatDownloads(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1_500, "1.5k"},
		{2_300_000, "2.3M"},
	}
	for _, tc := range cases {
		if got := formatDownloads(tc.in); got != tc.want {
			t.Errorf("formatDownloads(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate(short) = %q", got)
	}
	if got := truncate("a longer description here", 10); len(got) > 12 {
		t.Errorf("truncate did not shorten: %q", got)
	}
}
