package backend

import (
	"os"
	"strings"
)

// LocaleSystem はOSの設定から音声認識の言語を決めることを表す
const LocaleSystem = "system"

// 既定の音声認識言語
const defaultSpeechLocale = "en-US"

// 言語コードだけが分かった場合に使う地域付きのタグ
var speechLocaleByLanguage = map[string]string{
	"en": "en-US",
	"ja": "ja-JP",
	"fr": "fr-FR",
	"de": "de-DE",
	"es": "es-ES",
	"it": "it-IT",
	"pt": "pt-BR",
}

// DetectSystemLocale はOSのシステムロケールを検出します
// 環境変数 LC_ALL, LC_MESSAGES, LANG を順にチェックします
func DetectSystemLocale() string {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			return NormalizeSpeechLocale(value)
		}
	}
	return defaultSpeechLocale
}

// NormalizeSpeechLocale はロケール文字列を音声認識用の BCP 47 タグに正規化します
// 例: "ja_JP.UTF-8" → "ja-JP", "en" → "en-US", "C" → "en-US"
func NormalizeSpeechLocale(locale string) string {
	locale = strings.TrimSpace(locale)

	// エンコーディングと修飾子を削除（例: .UTF-8, @euro）
	if idx := strings.IndexAny(locale, ".@"); idx != -1 {
		locale = locale[:idx]
	}
	if locale == "" || strings.EqualFold(locale, "C") || strings.EqualFold(locale, "POSIX") {
		return defaultSpeechLocale
	}

	parts := strings.FieldsFunc(locale, func(r rune) bool { return r == '_' || r == '-' })
	if len(parts) == 0 {
		return defaultSpeechLocale
	}
	language := strings.ToLower(parts[0])
	if len(parts) >= 2 && len(parts[1]) == 2 {
		return language + "-" + strings.ToUpper(parts[1])
	}
	if tag, ok := speechLocaleByLanguage[language]; ok {
		return tag
	}
	return defaultSpeechLocale
}

// ResolveSpeechLocale は設定された言語を解決します
// "system" の場合はシステムロケールを返し、それ以外は正規化して返します
func ResolveSpeechLocale(setting string) string {
	if setting == LocaleSystem || strings.TrimSpace(setting) == "" {
		return DetectSystemLocale()
	}
	return NormalizeSpeechLocale(setting)
}
