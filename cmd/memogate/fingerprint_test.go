package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestFingerprintCmd(t *testing.T) {
	cmd := newFingerprintCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"", ""})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	want := "374708fff7719dd5979ec875d56cd2286f6d3cf7ec317a3b25632aab28ec37bb"
	if got := strings.TrimSpace(out.String()); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestFingerprintCmdArgs(t *testing.T) {
	cmd := newFingerprintCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"only-one"})
	if err := cmd.Execute(); err == nil {
		t.Error("expected error for a single argument")
	}
}
