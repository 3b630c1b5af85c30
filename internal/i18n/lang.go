package i18n

import (
	"os"
	"strings"

	"golang.org/x/text/language"
)

// Supported lists the languages that ship with a locale file.
var Supported = []language.Tag{language.English, language.Russian}

var matcher = language.NewMatcher(Supported)

// Resolve picks the best supported language for the given preferences, which may be
// BCP 47 tags or POSIX locale names such as "ru_RU.UTF-8". Empty values are skipped.
func Resolve(preferred ...string) string {
	var tags []string
	for _, p := range preferred {
		p, _, _ = strings.Cut(p, ".")
		p = strings.ReplaceAll(strings.TrimSpace(p), "_", "-")
		if p == "" || p == "C" || p == "POSIX" {
			continue
		}
		tags = append(tags, p)
	}
	tag, _ := language.MatchStrings(matcher, tags...)
	base, _ := tag.Base()
	return base.String()
}

// FromEnv resolves the UI language from an explicit choice (usually the --lang flag)
// followed by the POSIX locale variables in their precedence order.
func FromEnv(explicit string) string {
	return Resolve(explicit, os.Getenv("LC_ALL"), os.Getenv("LC_MESSAGES"), os.Getenv("LANG"))
}
