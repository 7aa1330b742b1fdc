package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Iyapetai69/Otakudesuscrap/pkg/types"
)

// TestNewRootCmd tests the root command creation.
func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "otakudesuscrap" {
			t.Errorf("expected use 'otakudesuscrap', got %q", cmd.Use)
		}
	})

	t.Run("has config flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.PersistentFlags().Lookup("config")
		if flag == nil {
			t.Fatal("expected config flag")
		}
		if flag.Shorthand != "c" {
			t.Errorf("expected shorthand 'c', got %q", flag.Shorthand)
		}
	})

	t.Run("has subcommands", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{"crawl", "page", "version"} {
			found := false
			for _, sub := range cmd.Commands() {
				if strings.HasPrefix(sub.Use, name) {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("expected %q subcommand", name)
			}
		}
	})
}

// TestNewCrawlCmd tests the crawl command creation.
func TestNewCrawlCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCrawlCmd()

	t.Run("has flags", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{"output", "concurrency", "max-pages", "no-render"} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected %q flag", name)
			}
		}
	})

	t.Run("rejects positional args", func(t *testing.T) {
		t.Parallel()
		if err := cmd.Args(cmd, []string{"extra"}); err == nil {
			t.Error("expected error for positional arguments")
		}
	})
}

// TestParseWorkItem tests positional argument parsing for the page command.
func TestParseWorkItem(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		want    types.WorkItem
		wantErr bool
	}{
		{
			name: "singleton kind defaults its id",
			args: []string{"home"},
			want: types.WorkItem{Kind: types.KindHome, ID: "home"},
		},
		{
			name: "schedule alias",
			args: []string{"jadwal"},
			want: types.WorkItem{Kind: types.KindSchedule, ID: "jadwal"},
		},
		{
			name: "anime with slug",
			args: []string{"anime", "tokyo-revengers-sub-indo"},
			want: types.WorkItem{Kind: types.KindAnime, ID: "tokyo-revengers-sub-indo"},
		},
		{
			name: "ongoing with page id",
			args: []string{"ongoing", "p2"},
			want: types.WorkItem{Kind: types.KindOngoing, ID: "p2"},
		},
		{
			name: "ongoing bare page number normalized",
			args: []string{"ongoing", "2"},
			want: types.WorkItem{Kind: types.KindOngoing, ID: "p2"},
		},
		{
			name:    "ongoing non-numeric id",
			args:    []string{"ongoing", "latest"},
			wantErr: true,
		},
		{
			name:    "ongoing zero page",
			args:    []string{"ongoing", "p0"},
			wantErr: true,
		},
		{
			name:    "anime without id",
			args:    []string{"anime"},
			wantErr: true,
		},
		{
			name:    "unknown kind",
			args:    []string{"movies"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseWorkItem(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

// TestVersionCmd tests version command output.
func TestVersionCmd(t *testing.T) {
	t.Parallel()

	cmd := NewVersionCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.Run(cmd, nil)

	out := buf.String()
	if !strings.Contains(out, "otakudesuscrap version") {
		t.Errorf("unexpected version output: %q", out)
	}
}
