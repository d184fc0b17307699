package extract

import (
	"regexp"
	"strings"
)

var (
	companyLabel  = regexp.MustCompile(`(?i)(?:company|empresa):\s*([^\n\r]+)`)
	locationLabel = regexp.MustCompile(`(?i)(?:location|local|cidade):\s*([^\n\r]+)`)
	salaryLabel   = regexp.MustCompile(`(?i)(?:salary|salário|remuneração):\s*([^\n\r]+)`)
	currency      = regexp.MustCompile(`R\$\s*[\d.,]+`)
)

// LabelledCompany finds a "Company:" or "Empresa:" line in text.
func LabelledCompany(text string) string {
	return firstGroup(companyLabel, text)
}

// LabelledLocation finds a "Location:", "Local:" or "Cidade:" line in text.
func LabelledLocation(text string) string {
	return firstGroup(locationLabel, text)
}

// LabelledSalary finds a "Salary:", "Salário:" or "Remuneração:" line in
// text, falling back to a bare "R$ 1.234,56" amount.
func LabelledSalary(text string) string {
	if s := firstGroup(salaryLabel, text); s != "" {
		return s
	}
	return strings.TrimSpace(currency.FindString(text))
}

// Currency returns the first "R$ <number>" amount in text.
func Currency(text string) string {
	return strings.TrimSpace(currency.FindString(text))
}

func firstGroup(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}
