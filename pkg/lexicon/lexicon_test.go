package lexicon

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMatches_English(t *testing.T) {
	reg := Get()

	if !reg.Matches("This is just between us, our secret", CategorySecrecy) {
		t.Error("Secrecy phrase should match")
	}
	if !reg.Matches("Do your parents understand you like I do?", CategoryIsolation) {
		t.Error("Isolation phrase should match")
	}
	if !reg.Matches("Let's move to WhatsApp instead", CategoryPlatformMigration) {
		t.Error("Platform migration phrase should match")
	}
	if !reg.Matches("You are so special to me", CategoryEmotionalDependency) {
		t.Error("Emotional dependency phrase should match")
	}
	if reg.Matches("I don't understand problem number 5.", CategorySecrecy) {
		t.Error("Homework question should not match secrecy")
	}
}

func TestMatches_Multilingual(t *testing.T) {
	reg := Get()

	if !reg.Matches("Isso é nosso segredo, não conte para ninguém", CategorySecrecy) {
		t.Error("Portuguese secrecy phrase should match")
	}
	if !reg.Matches("Esto queda entre nosotros", CategoryIsolation) {
		t.Error("Spanish isolation phrase should match")
	}
}

func TestMatches_CaseInsensitive(t *testing.T) {
	reg := Get()

	if !reg.Matches("OUR SECRET stays safe", CategorySecrecy) {
		t.Error("Matching should be case-insensitive")
	}
	if !reg.Matches("Add me on SnapChat", CategoryPlatformMigration) {
		t.Error("Mixed-case platform name should match")
	}
}

func TestMatches_UnknownCategory(t *testing.T) {
	reg := Get()

	if reg.Matches("our secret", Category("nonexistent")) {
		t.Error("Unknown category should never match")
	}
}

func TestTotalPhrases(t *testing.T) {
	reg := Get()

	if reg.TotalPhrases() == 0 {
		t.Fatal("Built-in lexicon should not be empty")
	}
	for _, cat := range Categories {
		if reg.CategoryCount(cat) == 0 {
			t.Errorf("Category %s should have phrases", cat)
		}
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lexicon.yaml")
	content := `categories:
  secrecy:
    - "hush hush"
  isolation:
    - "cut them off"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	reg := newRegistry()
	if err := reg.LoadFile(path); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if !reg.Matches("this is hush hush", CategorySecrecy) {
		t.Error("Loaded secrecy phrase should match")
	}
	if reg.Matches("our secret", CategorySecrecy) {
		t.Error("Built-in secrecy phrases should be replaced")
	}
	// Categories not in the file keep their built-in phrases
	if !reg.Matches("you are special", CategoryEmotionalDependency) {
		t.Error("Unlisted category should keep built-in phrases")
	}
}

func TestLoadFile_UnknownCategory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lexicon.yaml")
	content := `categories:
  made_up:
    - "whatever"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	reg := newRegistry()
	if err := reg.LoadFile(path); err == nil {
		t.Error("LoadFile should reject unknown category names")
	}
}
