package extract

import (
	"strings"
	"testing"
)

func TestFold(t *testing.T) {
	if got := Fold("SÃO Paulo, Goiás"); got != "sao paulo, goias" {
		t.Errorf("Fold = %q", got)
	}
}

func TestPlainText(t *testing.T) {
	got := PlainText("<p>Hello   <b>world</b></p>\n<ul><li>one</li></ul>")
	if got != "Hello world one" {
		t.Errorf("PlainText = %q", got)
	}
}

func TestPlainLines(t *testing.T) {
	got := PlainLines("<p>Empresa: Acme</p><p>Local: Recife<br>Salário: R$ 3.000</p>")
	want := "Empresa: Acme\nLocal: Recife\nSalário: R$ 3.000"
	if got != want {
		t.Errorf("PlainLines = %q, want %q", got, want)
	}
}

func TestSanitizeHTML(t *testing.T) {
	in := `<p onclick="x()">Hi <script>alert(1)</script><a href="javascript:x" title="t">link</a> <font color="red">red</font></p>`
	got := SanitizeHTML(in)

	if strings.Contains(got, "script") || strings.Contains(got, "alert") {
		t.Errorf("script survived: %q", got)
	}
	if strings.Contains(got, "onclick") || strings.Contains(got, "javascript") {
		t.Errorf("unsafe attribute survived: %q", got)
	}
	if strings.Contains(got, "<font") || !strings.Contains(got, "red") {
		t.Errorf("font not unwrapped: %q", got)
	}
	if !strings.Contains(got, `title="t"`) {
		t.Errorf("allowed attribute dropped: %q", got)
	}
}

func TestCleanDescription(t *testing.T) {
	got := CleanDescription("First   line<br><br>Second <a href=\"http://x\">line</a>")
	want := "<p>First line</p><p>Second line</p>"
	if got != want {
		t.Errorf("CleanDescription = %q, want %q", got, want)
	}
	if CleanDescription("   ") != "" {
		t.Error("blank description should stay blank")
	}
}

func TestLabelled(t *testing.T) {
	text := "Vaga incrível\nEmpresa: Acme Ltda\nCidade: Recife - PE\nRemuneração: a combinar"
	if got := LabelledCompany(text); got != "Acme Ltda" {
		t.Errorf("company = %q", got)
	}
	if got := LabelledLocation(text); got != "Recife - PE" {
		t.Errorf("location = %q", got)
	}
	if got := LabelledSalary(text); got != "a combinar" {
		t.Errorf("salary = %q", got)
	}
	if got := LabelledSalary("Pagamos R$ 4.500,00 por mês"); got != "R$ 4.500,00" {
		t.Errorf("currency salary = %q", got)
	}
	if got := LabelledCompany("no labels here"); got != "" {
		t.Errorf("company = %q, want empty", got)
	}
}

func TestJobType(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Desenvolvedor Go - Meio Período", JobTypePartTime},
		{"Backend engineer, full-time", JobTypeFullTime},
		{"Freelancer React", JobTypeFreelance},
		{"Analista (contrato PJ)", JobTypeContract},
		{"Vaga de Estágio em TI", JobTypeInternship},
		{"International sales lead", DefaultJobType},
		{"", DefaultJobType},
	}
	for _, tt := range tests {
		if got := JobType(tt.text); got != tt.want {
			t.Errorf("JobType(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestNormalizeJobType(t *testing.T) {
	if got := NormalizeJobType(" Part-Time "); got != JobTypePartTime {
		t.Errorf("got %q", got)
	}
	if got := NormalizeJobType("temporary"); got != JobTypeTemporary {
		t.Errorf("got %q", got)
	}
	if got := NormalizeJobType("seasonal"); got != "Seasonal" {
		t.Errorf("got %q", got)
	}
}

func TestEmploymentType(t *testing.T) {
	tests := map[string]string{
		"Full Time":    EmploymentFullTime,
		"meio período": EmploymentPartTime,
		"freelance":    EmploymentContractor,
		"Temporário":   EmploymentTemporary,
		"estágio":      EmploymentIntern,
		"whatever":     EmploymentFullTime,
	}
	for in, want := range tests {
		if got := EmploymentType(in); got != want {
			t.Errorf("EmploymentType(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRegion(t *testing.T) {
	tests := []struct {
		location string
		want     string
	}{
		{"Rio de Janeiro, RJ", "Rio de Janeiro"},
		{"Unknown City", "Unknown City"},
		{"Campinas - SP", "São Paulo"},
		{"SÃO PAULO", "São Paulo"},
		{"Belo Horizonte (Minas Gerais)", "Minas Gerais"},
		{"Lisboa, Portugal", "Lisboa"},
		{"Pará de Minas", "Pará de Minas"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Region(tt.location); got != tt.want {
			t.Errorf("Region(%q) = %q, want %q", tt.location, got, tt.want)
		}
	}
}

func TestRemote(t *testing.T) {
	if !Remote("Dev Go", "Descrição", "São Paulo (Home Office)") {
		t.Error("expected home office location to be remote")
	}
	if Remote("Dev Go", "Trabalho presencial", "São Paulo") {
		t.Error("expected on-site job not to be remote")
	}
	if !Remote("Senior Engineer (WFH)", "", "") {
		t.Error("expected WFH title to be remote")
	}
}
