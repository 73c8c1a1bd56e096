package policy

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultKeywordsPopulated(t *testing.T) {
	kw := Default()

	if len(kw.AttackPhrases) == 0 {
		t.Fatal("default attack phrases must not be empty")
	}
	if len(kw.GDPR) == 0 || len(kw.HIPAA) == 0 || len(kw.Financial) == 0 {
		t.Fatal("default compliance families must not be empty")
	}

	found := false
	for _, p := range kw.AttackPhrases {
		if p == "ignore previous instructions" {
			found = true
		}
	}
	if !found {
		t.Error("expected canonical injection phrase in defaults")
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	kw, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") returned error: %v", err)
	}
	if len(kw.AttackPhrases) != len(Default().AttackPhrases) {
		t.Error("empty path must return defaults untouched")
	}
}

func TestLoadPartialOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keywords.yaml")
	content := "attack_phrases:\n  - \"jailbreak\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	kw, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(kw.AttackPhrases) != 1 || kw.AttackPhrases[0] != "jailbreak" {
		t.Errorf("attack_phrases not overridden: %v", kw.AttackPhrases)
	}
	// Не переопределенные секции остаются дефолтными
	if len(kw.GDPR) != len(Default().GDPR) {
		t.Error("gdpr family must stay default when absent from file")
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load("/nonexistent/keywords.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
