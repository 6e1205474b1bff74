package extractor

import (
	"strings"
	"testing"
)

func extract(t *testing.T, markup string) *ProcessData {
	t.Helper()
	ex := New(Config{})
	data, err := ex.ExtractReader(strings.NewReader(markup))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	return data
}

func TestProcessNumberFromHeading(t *testing.T) {
	data := extract(t, `<html><body>
		<h4>Processo 1234567-89.2023.1.02.0001</h4>
	</body></html>`)
	if data.Number != "1234567-89.2023.1.02.0001" {
		t.Errorf("Number = %q, want 1234567-89.2023.1.02.0001", data.Number)
	}
}

func TestProcessNumberHeadingPriority(t *testing.T) {
	// The heading match must win over an earlier occurrence in plain text.
	data := extract(t, `<html><body>
		<p>ver também 7654321-98.2020.8.26.0100</p>
		<h2>Autos nº 1234567-89.2023.1.02.0001</h2>
	</body></html>`)
	if data.Number != "1234567-89.2023.1.02.0001" {
		t.Errorf("Number = %q, want the heading match", data.Number)
	}
}

func TestProcessNumberFromText(t *testing.T) {
	data := extract(t, `<html><body>
		<p>Distribuído sob o número 1234567-89.2023.1.02.0001 em 2023.</p>
	</body></html>`)
	if data.Number != "1234567-89.2023.1.02.0001" {
		t.Errorf("Number = %q", data.Number)
	}
}

func TestProcessNumberBareDigits(t *testing.T) {
	data := extract(t, `<html><body><p>numero: 12345678920231020001</p></body></html>`)
	if data.Number != "12345678920231020001" {
		t.Errorf("Number = %q, want bare 20-digit run", data.Number)
	}
}

func TestTextSurvivesScriptAndStyle(t *testing.T) {
	// A script or style element must only hide its own content; text in
	// later siblings and ancestors still feeds the full-text matchers.
	data := extract(t, `<html>
	<head><script>var tracker = "1111111-11.1111.1.11.1111";</script></head>
	<body>
		<style>.badge { color: red; }</style>
		<p>Processo distribuído sob o número 1234567-89.2023.1.02.0001.</p>
		<p>Assunto: Cobrança de dívida</p>
	</body></html>`)
	if data.Number != "1234567-89.2023.1.02.0001" {
		t.Errorf("Number = %q, want the match after the script", data.Number)
	}
	if data.Subject != "Cobrança de dívida" {
		t.Errorf("Subject = %q, want the textual fallback after the script", data.Subject)
	}
}

func TestProcessNumberNotReformatted(t *testing.T) {
	const number = "0001234-56.2019.8.13.0024"
	data := extract(t, "<h1>"+number+"</h1>")
	if data.Number != number {
		t.Errorf("Number = %q, want the exact source string %q", data.Number, number)
	}
}

func TestProcessNumberMissing(t *testing.T) {
	data := extract(t, `<html><body><p>nenhum número aqui</p></body></html>`)
	if data.Number != "" {
		t.Errorf("Number = %q, want empty for a document with no number", data.Number)
	}
}

func TestLabeledFieldsStructural(t *testing.T) {
	data := extract(t, `<html><body>
		<div><strong>Classe:</strong><span>Execução de Título Extrajudicial</span></div>
		<div><strong>Assunto:</strong><span>Cobrança de dívida</span></div>
		<div><strong>Juiz:</strong><span>Dr. João Silva</span></div>
	</body></html>`)
	if data.Class != "Execução de Título Extrajudicial" {
		t.Errorf("Class = %q", data.Class)
	}
	if data.Subject != "Cobrança de dívida" {
		t.Errorf("Subject = %q", data.Subject)
	}
	if data.Judge != "Dr. João Silva" {
		t.Errorf("Judge = %q", data.Judge)
	}
}

func TestLabeledFieldFirstPairWins(t *testing.T) {
	data := extract(t, `<html><body>
		<div><b>Classe:</b><span>Primeira</span></div>
		<div><b>Classe:</b><span>Segunda</span></div>
	</body></html>`)
	if data.Class != "Primeira" {
		t.Errorf("Class = %q, want the first pair in document order", data.Class)
	}
}

func TestLabeledFieldsTextFallback(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		get    func(*ProcessData) string
		want   string
	}{
		{"class", "<p>Classe: Monitória</p>", func(d *ProcessData) string { return d.Class }, "Monitória"},
		{"class synonym", "<p>Tipo: Ordinária</p>", func(d *ProcessData) string { return d.Class }, "Ordinária"},
		{"subject", "<p>Assunto: Despejo</p>", func(d *ProcessData) string { return d.Subject }, "Despejo"},
		{"subject synonym", "<p>Objeto: Indenização</p>", func(d *ProcessData) string { return d.Subject }, "Indenização"},
		{"judge", "<p>Juiz: Dra. Ana Costa</p>", func(d *ProcessData) string { return d.Judge }, "Dra. Ana Costa"},
		{"judge magistrado", "<p>Magistrado: Dr. Pedro Ramos</p>", func(d *ProcessData) string { return d.Judge }, "Dr. Pedro Ramos"},
		{"judge relator", "<p>Relator: Des. Luís Braga</p>", func(d *ProcessData) string { return d.Judge }, "Des. Luís Braga"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := extract(t, "<html><body>"+tt.markup+"</body></html>")
			if got := tt.get(data); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLabeledFieldsDefaultPlaceholder(t *testing.T) {
	data := extract(t, `<html><body><p>página vazia</p></body></html>`)
	for field, got := range map[string]string{"class": data.Class, "subject": data.Subject, "judge": data.Judge} {
		if got != NotInformed {
			t.Errorf("%s = %q, want %q", field, got, NotInformed)
		}
	}
}

func TestExtractPartiesWithBadges(t *testing.T) {
	data := extract(t, `<html><body><ul>
		<li class="list-group-item"><span class="badge">EXEQUENTE</span> João da Silva - CPF: 123.456.789-01</li>
		<li class="list-group-item"><span class="badge">EXECUTADA</span> Maria Santos - CNPJ: 12.345.678/0001-90</li>
	</ul></body></html>`)
	if len(data.Parties) != 2 {
		t.Fatalf("got %d parties, want 2", len(data.Parties))
	}
	p := data.Parties[0]
	if p.Name != "João da Silva" || p.Document != "123.456.789-01" || p.Category != CategoryExequente {
		t.Errorf("first party = %+v", p)
	}
	p = data.Parties[1]
	if p.Name != "Maria Santos" || p.Document != "12.345.678/0001-90" || p.Category != CategoryExecutada {
		t.Errorf("second party = %+v", p)
	}
}

func TestExtractPartyWithoutBadge(t *testing.T) {
	data := extract(t, `<html><body><ul>
		<li class="list-group-item">Carlos Pereira</li>
	</ul></body></html>`)
	if len(data.Parties) != 1 {
		t.Fatalf("got %d parties, want 1", len(data.Parties))
	}
	if data.Parties[0].Category != CategoryTerceiro {
		t.Errorf("category = %q, want TERCEIRO for badge-less entries", data.Parties[0].Category)
	}
	if data.Parties[0].Document != "" {
		t.Errorf("document = %q, want empty", data.Parties[0].Document)
	}
}

func TestNoiseFilterDropsShortNames(t *testing.T) {
	data := extract(t, `<html><body><ul>
		<li class="list-group-item"><span class="badge">AUTOR</span> ab</li>
		<li class="list-group-item"><span class="badge">AUTOR</span> (somente parênteses)</li>
		<li class="list-group-item"><span class="badge">AUTOR</span> José Dias</li>
	</ul></body></html>`)
	if len(data.Parties) != 1 {
		t.Fatalf("got %d parties, want only the real name", len(data.Parties))
	}
	if data.Parties[0].Name != "José Dias" {
		t.Errorf("Name = %q", data.Parties[0].Name)
	}
}

func TestMalformedMarkupTolerated(t *testing.T) {
	// Unclosed tags and stray nesting must not break extraction.
	data := extract(t, `<html><body><h4>Processo 1234567-89.2023.1.02.0001
		<div><ul><li class="list-group-item"><span class="badge">RÉU</span> Pedro Gomes`)
	if data.Number != "1234567-89.2023.1.02.0001" {
		t.Errorf("Number = %q", data.Number)
	}
	if len(data.Parties) != 1 || data.Parties[0].Category != CategoryReu {
		t.Errorf("parties = %+v", data.Parties)
	}
}

func TestEndToEndDocument(t *testing.T) {
	data := extract(t, `<html><body>
		<h4>Processo 1234567-89.2023.1.02.0001</h4>
		<div><strong>Classe:</strong><span>Execução de Título Extrajudicial</span></div>
		<div><strong>Assunto:</strong><span>Cobrança de dívida</span></div>
		<div><strong>Juiz:</strong><span>Dr. João Silva</span></div>
		<ul class="list-group">
			<li class="list-group-item"><span class="badge">EXEQUENTE</span> João da Silva - CPF: 123.456.789-01</li>
			<li class="list-group-item"><span class="badge">EXECUTADA</span> Maria Santos - CNPJ: 12.345.678/0001-90</li>
		</ul>
	</body></html>`)

	if data.Number != "1234567-89.2023.1.02.0001" {
		t.Errorf("Number = %q", data.Number)
	}
	if data.Class != "Execução de Título Extrajudicial" {
		t.Errorf("Class = %q", data.Class)
	}
	if data.Subject != "Cobrança de dívida" {
		t.Errorf("Subject = %q", data.Subject)
	}
	if data.Judge != "Dr. João Silva" {
		t.Errorf("Judge = %q", data.Judge)
	}
	if len(data.Parties) != 2 {
		t.Fatalf("got %d parties, want 2", len(data.Parties))
	}
	if data.Parties[0].Category != CategoryExequente || data.Parties[1].Category != CategoryExecutada {
		t.Errorf("categories = %q, %q", data.Parties[0].Category, data.Parties[1].Category)
	}
}
