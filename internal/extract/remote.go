package extract

import "strings"

var remoteKeywords = []string{
	"remoto", "remote", "home office", "trabalho remoto",
	"teletrabalho", "work from home", "wfh",
}

// Remote reports whether any of the texts mentions remote work.
func Remote(texts ...string) bool {
	search := strings.ToLower(strings.Join(texts, " "))
	for _, kw := range remoteKeywords {
		if strings.Contains(search, kw) {
			return true
		}
	}
	return false
}
