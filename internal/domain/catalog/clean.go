package catalog

import (
	"regexp"
	"strings"
)

var (
	noisePrefixes = []string{
		"card purchase ", "purchase ", "payment ", "pos ",
		"visa ", "mastercard ", "maestro ", "debit ", "recurring ",
	}
	trailingRefPattern  = regexp.MustCompile(`\s+#?\d{4,}$`)
	trailingDatePattern = regexp.MustCompile(`\s+\d{1,2}/\d{1,2}(/\d{2,4})?$`)
	spacePattern        = regexp.MustCompile(`\s+`)
)

// matchKey lowercases raw and strips card-terminal noise so keywords can be
// found in it. It is only used for matching; callers never see the key.
func matchKey(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = spacePattern.ReplaceAllString(key, " ")

	for _, prefix := range noisePrefixes {
		if strings.HasPrefix(key, prefix) {
			key = key[len(prefix):]
			break
		}
	}

	key = trailingRefPattern.ReplaceAllString(key, "")
	key = trailingDatePattern.ReplaceAllString(key, "")
	return strings.TrimSpace(key)
}
