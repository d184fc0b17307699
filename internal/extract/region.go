package extract

import (
	"regexp"
	"strings"
)

type state struct {
	abbr string
	name string
}

var brazilianStates = []state{
	{"AC", "Acre"}, {"AL", "Alagoas"}, {"AP", "Amapá"}, {"AM", "Amazonas"},
	{"BA", "Bahia"}, {"CE", "Ceará"}, {"DF", "Distrito Federal"}, {"ES", "Espírito Santo"},
	{"GO", "Goiás"}, {"MA", "Maranhão"}, {"MT", "Mato Grosso"}, {"MS", "Mato Grosso do Sul"},
	{"MG", "Minas Gerais"}, {"PA", "Pará"}, {"PB", "Paraíba"}, {"PR", "Paraná"},
	{"PE", "Pernambuco"}, {"PI", "Piauí"}, {"RJ", "Rio de Janeiro"}, {"RN", "Rio Grande do Norte"},
	{"RS", "Rio Grande do Sul"}, {"RO", "Rondônia"}, {"RR", "Roraima"}, {"SC", "Santa Catarina"},
	{"SP", "São Paulo"}, {"SE", "Sergipe"}, {"TO", "Tocantins"},
}

var (
	regionTokenSep = regexp.MustCompile(`[,\-()/|]`)
	regionPartSep  = regexp.MustCompile(`[,\-]`)
)

// Region derives a region name from a free-form location. A token that is
// exactly a Brazilian state abbreviation or name yields the state name;
// otherwise the text before the first comma or dash is used, or the whole
// location.
func Region(location string) string {
	location = strings.TrimSpace(location)
	if location == "" {
		return ""
	}

	var tokens []string
	for _, t := range regionTokenSep.Split(location, -1) {
		if t = strings.TrimSpace(t); t != "" {
			tokens = append(tokens, t)
		}
	}

	for _, t := range tokens {
		upper := strings.ToUpper(t)
		for _, s := range brazilianStates {
			if upper == s.abbr {
				return s.name
			}
		}
	}
	for _, t := range tokens {
		folded := Fold(t)
		for _, s := range brazilianStates {
			if folded == Fold(s.name) {
				return s.name
			}
		}
	}

	if first := strings.TrimSpace(regionPartSep.Split(location, 2)[0]); first != "" {
		return first
	}
	return location
}
