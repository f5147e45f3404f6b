package translation

import (
	"strings"

	"github.com/leonelquinteros/gotext"
)

const domain = "default"

// Configure loads the catalogue for lang from localesDir.
// Message ids double as the English text, so a missing catalogue is harmless.
func Configure(localesDir, lang string) {
	gotext.Configure(localesDir, strings.ToLower(lang), domain)
}

func GetLanguage() string {
	lang := gotext.GetLanguage()

	if lang == "und" || lang == "" {
		return "en"
	}

	return lang
}

func Translate(msgID string, vars ...interface{}) string {
	return gotext.Get(msgID, vars...)
}
