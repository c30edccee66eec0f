package backend

import "testing"

func TestDetectSystemLocale_UsesEnvironmentVariablesInOrder(t *testing.T) {
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_MESSAGES", "ja_JP.UTF-8")
	t.Setenv("LANG", "en_US.UTF-8")

	got := DetectSystemLocale()
	if got != "ja-JP" {
		t.Fatalf("expected %q, got %q", "ja-JP", got)
	}
}

func TestDetectSystemLocale_FallbacksToEnglish(t *testing.T) {
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_MESSAGES", "")
	t.Setenv("LANG", "")

	got := DetectSystemLocale()
	if got != defaultSpeechLocale {
		t.Fatalf("expected %q, got %q", defaultSpeechLocale, got)
	}
}

func TestNormalizeSpeechLocale(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"ja_JP.UTF-8", "ja-JP"},
		{"en_GB", "en-GB"},
		{"de_DE@euro", "de-DE"},
		{"fr-ca", "fr-CA"},
		{"en", "en-US"},
		{"ja", "ja-JP"},
		{"C", "en-US"},
		{"POSIX", "en-US"},
		{"", "en-US"},
		{"xx", "en-US"},
	}

	for _, tt := range tests {
		if got := NormalizeSpeechLocale(tt.input); got != tt.want {
			t.Errorf("NormalizeSpeechLocale(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestResolveSpeechLocale(t *testing.T) {
	t.Setenv("LC_ALL", "fr_FR.UTF-8")

	if got := ResolveSpeechLocale(LocaleSystem); got != "fr-FR" {
		t.Fatalf("system: expected %q, got %q", "fr-FR", got)
	}
	if got := ResolveSpeechLocale(""); got != "fr-FR" {
		t.Fatalf("empty: expected %q, got %q", "fr-FR", got)
	}
	if got := ResolveSpeechLocale("ja_JP"); got != "ja-JP" {
		t.Fatalf("explicit: expected %q, got %q", "ja-JP", got)
	}
}
