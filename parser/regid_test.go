package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslateRegulationID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		from Language
		to   Language
		want string
	}{
		{"crc en to fr", "C.R.C._c. 945", LangEN, LangFR, "C.R.C._ch. 945"},
		{"crc fr to en", "C.R.C._ch. 945", LangFR, LangEN, "C.R.C._c. 945"},
		{"sor en to fr", "SOR-98-282", LangEN, LangFR, "DORS-98-282"},
		{"dors fr to en", "DORS-98-282", LangFR, LangEN, "SOR-98-282"},
		{"si en to fr", "SI-2020-45", LangEN, LangFR, "TR-2020-45"},
		{"year section en to fr", "1985_c. F-7_s. 2", LangEN, LangFR, "1985_ch. F-7_art. 2"},
		{"same language is a no-op", "SOR-98-282", LangEN, LangEN, "SOR-98-282"},
		{"unknown format passes through", "not-a-known-format", LangEN, LangFR, "not-a-known-format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TranslateRegulationID(tt.id, tt.from, tt.to))
		})
	}
}
