package i18n

import (
	"testing"
	"time"
)

func TestNormalize(t *testing.T) {
	if got := Normalize(""); got != DefaultLanguage {
		t.Fatalf("empty normalize should fall back to default, got %q", got)
	}
	if got := Normalize("EN-us"); got != LanguageEnglish {
		t.Fatalf("expected english normalization, got %q", got)
	}
	if got := Normalize("zh_CN"); got != LanguageChinese {
		t.Fatalf("expected chinese normalization, got %q", got)
	}
	if got := Normalize("ja"); got != DefaultLanguage {
		t.Fatalf("unknown language should fall back to default, got %q", got)
	}
}

func TestDateTimeLayout(t *testing.T) {
	ts := time.Date(2021, 3, 4, 17, 5, 9, 0, time.UTC)
	cases := []struct {
		lang Language
		want string
	}{
		{lang: LanguageEnglish, want: "March 4, 2021 at 5:05:09 PM UTC"},
		{lang: LanguageChinese, want: "2021年3月4日 17:05:09 UTC"},
		{lang: Language("fr"), want: "March 4, 2021 at 5:05:09 PM UTC"},
	}
	for _, tc := range cases {
		if got := ts.Format(tc.lang.DateTimeLayout()); got != tc.want {
			t.Fatalf("%s layout = %q, want %q", tc.lang, got, tc.want)
		}
	}
}

func TestLabels(t *testing.T) {
	if got := LanguageEnglish.Labels().Information; got != "Information" {
		t.Fatalf("english Information label = %q", got)
	}
	if got := LanguageChinese.Labels().Output; got != "输出" {
		t.Fatalf("chinese Output label = %q", got)
	}
}
