// ABOUTME: Tests for the install-skill command.
// ABOUTME: Validates skill installation, confirmation handling, and file content.

package main

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestInstallSkillWritesEmbeddedFile(t *testing.T) {
	home := t.TempDir()
	var out bytes.Buffer

	if err := installSkill(home, strings.NewReader(""), &out, true); err != nil {
		t.Fatalf("installSkill failed: %v", err)
	}

	written, err := os.ReadFile(skillPath(home))
	if err != nil {
		t.Fatalf("Skill file not created: %v", err)
	}
	embedded, err := skillFS.ReadFile("skill/SKILL.md")
	if err != nil {
		t.Fatalf("Failed to read embedded skill: %v", err)
	}
	if !bytes.Equal(written, embedded) {
		t.Error("Installed skill does not match embedded content")
	}

	info, err := os.Stat(skillPath(home))
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("Skill file permissions = %o, want 600", perm)
	}
}

func TestInstallSkillContentMarkers(t *testing.T) {
	content, err := skillFS.ReadFile("skill/SKILL.md")
	if err != nil {
		t.Fatalf("Failed to read embedded skill: %v", err)
	}

	for _, marker := range []string{"name: readiness", "readiness score", "readiness set log"} {
		if !strings.Contains(string(content), marker) {
			t.Errorf("Skill content missing %q", marker)
		}
	}
}

func TestInstallSkillDeclined(t *testing.T) {
	home := t.TempDir()
	var out bytes.Buffer

	if err := installSkill(home, strings.NewReader("n\n"), &out, false); err != nil {
		t.Fatalf("installSkill failed: %v", err)
	}
	if !strings.Contains(out.String(), "Installation canceled.") {
		t.Errorf("Expected cancel message, got %q", out.String())
	}
	if _, err := os.Stat(skillPath(home)); !os.IsNotExist(err) {
		t.Error("Expected no skill file after declining")
	}
}

func TestInstallSkillConfirmedOverwrites(t *testing.T) {
	home := t.TempDir()

	if err := installSkill(home, strings.NewReader(""), &bytes.Buffer{}, true); err != nil {
		t.Fatalf("first install failed: %v", err)
	}

	var out bytes.Buffer
	if err := installSkill(home, strings.NewReader("yes\n"), &out, false); err != nil {
		t.Fatalf("second install failed: %v", err)
	}
	if !strings.Contains(out.String(), "already exists") {
		t.Errorf("Expected overwrite note, got %q", out.String())
	}
}
