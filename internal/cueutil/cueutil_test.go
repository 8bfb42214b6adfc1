// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"strings"
	"testing"
)

const testSchema = `
#Thing: {
	name:  string & !=""
	count: int & >0
}
`

type thing struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestDecode_Valid(t *testing.T) {
	t.Parallel()

	got, err := Decode[thing](testSchema, []byte(`name: "widget", count: 3`), "#Thing", "thing.cue")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "widget" || got.Count != 3 {
		t.Errorf("unexpected decode result: %+v", got)
	}
}

func TestDecode_SchemaViolation(t *testing.T) {
	t.Parallel()

	_, err := Decode[thing](testSchema, []byte(`name: "widget", count: 0`), "#Thing", "thing.cue")
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "thing.cue") {
		t.Errorf("error should name the file, got %q", err)
	}
	if !strings.Contains(err.Error(), "count") {
		t.Errorf("error should name the failing field, got %q", err)
	}
}

func TestDecode_SyntaxError(t *testing.T) {
	t.Parallel()

	_, err := Decode[thing](testSchema, []byte(`name: "widget`), "#Thing", "thing.cue")
	if err == nil {
		t.Fatal("expected syntax error")
	}
}

func TestDecode_MissingField(t *testing.T) {
	t.Parallel()

	_, err := Decode[thing](testSchema, []byte(`name: "widget"`), "#Thing", "thing.cue")
	if err == nil {
		t.Fatal("expected error for incomplete value")
	}
}

func TestDecode_FileTooLarge(t *testing.T) {
	t.Parallel()

	big := make([]byte, MaxFileSize+1)
	_, err := Decode[thing](testSchema, big, "#Thing", "big.cue")
	if err == nil || !strings.Contains(err.Error(), "exceeds maximum") {
		t.Fatalf("expected size error, got %v", err)
	}
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path []string
		want string
	}{
		{nil, ""},
		{[]string{"targets"}, "targets"},
		{[]string{"targets", "0", "packages"}, "targets[0].packages"},
		{[]string{"provision", "strategy"}, "provision.strategy"},
	}

	for _, tt := range tests {
		if got := formatPath(tt.path); got != tt.want {
			t.Errorf("formatPath(%v) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
