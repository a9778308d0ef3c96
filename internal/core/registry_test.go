package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

var testProfile = TableProfile{
	Name:        "TV-L",
	Aliases:     []string{"TVL"},
	GradeColumn: "Entgeltgruppe",
	Delimiter:   ';',
	ValidFrom:   "2025-02-01",
}

func TestRegistryGet(t *testing.T) {
	withProfiles(t, testProfile, TableProfile{Name: "TVöD", Aliases: []string{"TVoED"}})

	tests := []struct {
		lookup   string
		wantName string
		wantOK   bool
	}{
		{"TV-L", "TV-L", true},
		{"tv-l", "TV-L", true},
		{" TVL ", "TV-L", true},
		{"TVöD", "TVöD", true},
		{"tvoed", "TVöD", true},
		{"TV-H", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.lookup, func(t *testing.T) {
			p, ok := Get(tt.lookup)
			if ok != tt.wantOK {
				t.Fatalf("Get(%q) ok = %v, want %v", tt.lookup, ok, tt.wantOK)
			}
			if p.Name != tt.wantName {
				t.Errorf("Get(%q).Name = %q, want %q", tt.lookup, p.Name, tt.wantName)
			}
		})
	}

	if n := TableCount(); n != 2 {
		t.Errorf("TableCount = %d, want 2", n)
	}
	all := All()
	if len(all) != 2 || all[0].Name != "TV-L" || all[1].Name != "TVöD" {
		t.Errorf("All returned %+v", all)
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	tests := []struct {
		name    string
		profile TableProfile
	}{
		{name: "same name", profile: TableProfile{Name: "tv-l"}},
		{name: "name of an alias", profile: TableProfile{Name: "TVL"}},
		{name: "alias of a name", profile: TableProfile{Name: "TV-X", Aliases: []string{"TV-L"}}},
		{name: "empty name", profile: TableProfile{Name: " "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withProfiles(t, testProfile)
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			Register(tt.profile)
		})
	}
}

func TestApplyProfile(t *testing.T) {
	withProfiles(t, testProfile)

	got := ApplyProfile(NormalizeOptions{TableName: "tvl", ValidFrom: "2026-01-01"})
	want := NormalizeOptions{
		TableName:   "TV-L",
		GradeColumn: "Entgeltgruppe",
		Delimiter:   ';',
		ValidFrom:   "2026-01-01",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ApplyProfile mismatch (-want +got):\n%s", diff)
	}

	unknown := NormalizeOptions{TableName: "Haustarif"}
	if diff := cmp.Diff(unknown, ApplyProfile(unknown)); diff != "" {
		t.Errorf("unknown table changed (-want +got):\n%s", diff)
	}
}

func TestResolveOptions(t *testing.T) {
	withProfiles(t, testProfile)

	defaults := NormalizeOptions{
		TableName: "ignored",
		Region:    "Hessen",
		ValidFrom: "2024-03-01",
		Encoding:  "windows-1252",
	}

	tests := []struct {
		name string
		opts NormalizeOptions
		want NormalizeOptions
	}{
		{
			name: "profile wins over configured defaults",
			opts: NormalizeOptions{TableName: "TVL"},
			want: NormalizeOptions{
				TableName:   "TV-L",
				GradeColumn: "Entgeltgruppe",
				Delimiter:   ';',
				Region:      "Hessen",
				ValidFrom:   "2025-02-01",
				Encoding:    "windows-1252",
			},
		},
		{
			name: "explicit options win over everything",
			opts: NormalizeOptions{TableName: "TV-L", Region: "Bayern", ValidFrom: "2026-01-01", Encoding: "utf-8"},
			want: NormalizeOptions{
				TableName:   "TV-L",
				GradeColumn: "Entgeltgruppe",
				Delimiter:   ';',
				Region:      "Bayern",
				ValidFrom:   "2026-01-01",
				Encoding:    "utf-8",
			},
		},
		{
			name: "unknown table uses defaults then built-ins",
			opts: NormalizeOptions{TableName: "Haustarif"},
			want: NormalizeOptions{
				TableName:   "Haustarif",
				GradeColumn: DefaultGradeColumn,
				Delimiter:   DefaultDelimiter,
				Region:      "Hessen",
				ValidFrom:   "2024-03-01",
				Encoding:    "windows-1252",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, ResolveOptions(tt.opts, defaults)); diff != "" {
				t.Errorf("ResolveOptions mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
