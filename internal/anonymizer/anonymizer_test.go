package anonymizer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityRedactor(t *testing.T) {
	r := NewEntityRedactor()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"email", "contacto: ana.lopez@example.com", "contacto: <EMAIL_ADDRESS>"},
		{"mobile with prefix", "Tel: +34 612 345 678.", "Tel: <PHONE_NUMBER>."},
		{"mobile bare", "movil 612345678", "movil <PHONE_NUMBER>"},
		{"landline", "fijo 91 234 56 78", "fijo <PHONE_NUMBER>"},
		{"dni", "DNI 12345678Z", "DNI <ID_NUMBER>"},
		{"nie", "NIE X1234567L", "NIE <ID_NUMBER>"},
		{"iban", "IBAN ES91 2100 0418 4502 0005 1332", "IBAN <IBAN_CODE>"},
		{"card", "tarjeta 4111 1111 1111 1111", "tarjeta <CREDIT_CARD>"},
		{"ip", "equipo 192.168.1.20", "equipo <IP_ADDRESS>"},
		{"date", "Fecha: 12/03/1980", "Fecha: <DATE_TIME>"},
		{"labelled patient", "Paciente: Juan Pérez García\nDiagnóstico: anemia", "Paciente: <PERSON>\nDiagnóstico: anemia"},
		{"doctor title", "Dr. Luis Martín revisó el caso", "Dr. <PERSON> revisó el caso"},
		{"particle surname", "Nombre: María de la Torre", "Nombre: <PERSON>"},
		{"clinical values untouched", "Hemoglobina 13.5 g/dL, leucocitos normales", "Hemoglobina 13.5 g/dL, leucocitos normales"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Redact(tt.in))
		})
	}
}

func TestKeywordRedactor(t *testing.T) {
	r, err := NewKeywordRedactor(KeywordList{
		Keywords: []string{"Hospital Central", "NHC", "  "},
		Patterns: []string{`\bEXP-\d+\b`},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, r.Len())

	got := r.Redact("Hospital central, nhc 123, expediente EXP-998.")
	assert.Equal(t, "[REDACTADO], [REDACTADO] 123, expediente [REDACTADO].", got)
}

func TestKeywordRedactorGluedOccurrences(t *testing.T) {
	r, err := NewKeywordRedactor(KeywordList{Keywords: []string{"NHC", "Clínica Norte"}})
	require.NoError(t, err)

	got := r.Redact("NHC12345 atendido en Clínica Nortes, ref NHC-9, clínica norteña")
	assert.NotContains(t, got, "NHC")
	assert.NotContains(t, strings.ToLower(got), "clínica norte")
	assert.Equal(t, "[REDACTADO]12345 atendido en [REDACTADO]s, ref [REDACTADO]-9, [REDACTADO]ña", got)
}

func TestDefaultShortCodes(t *testing.T) {
	r, err := LoadKeywordRedactor("")
	require.NoError(t, err)

	got := r.Redact("CIP ABCD1234, nhc12345, motivo principal")
	assert.Equal(t, "[REDACTADO] ABCD1234, [REDACTADO]12345, motivo principal", got)
}

func TestKeywordRedactorBadPattern(t *testing.T) {
	_, err := NewKeywordRedactor(KeywordList{Patterns: []string{"("}})
	assert.Error(t, err)
}

func TestLoadKeywordRedactor(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		r, err := LoadKeywordRedactor("")
		require.NoError(t, err)
		assert.Equal(t, len(DefaultKeywords)+len(DefaultPatterns), r.Len())
	})

	t.Run("yaml file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "redaction.yaml")
		content := "keywords:\n  - Clínica San Rafael\npatterns:\n  - 'REF-[0-9]+'\nreplacement: \"[X]\"\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		r, err := LoadKeywordRedactor(path)
		require.NoError(t, err)
		assert.Equal(t, "[X] ([X])", r.Redact("clínica san rafael (REF-12)"))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadKeywordRedactor(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestAnonymizeRunsBothPasses(t *testing.T) {
	kw, err := NewKeywordRedactor(KeywordList{Keywords: []string{"Hospital Central"}})
	require.NoError(t, err)
	a := New(kw)

	got := a.Anonymize("Paciente: Ana Ruiz, ingresada en Hospital Central, email ana@correo.es")
	assert.Equal(t, "Paciente: <PERSON>, ingresada en [REDACTADO], email <EMAIL_ADDRESS>", got)
	assert.Equal(t, "sin datos", New(nil).Anonymize("sin datos"))
}
