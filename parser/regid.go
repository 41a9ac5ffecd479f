package parser

import "regexp"

type regIDRule struct {
	enToFr *regexp.Regexp
	frTmpl string
	frToEn *regexp.Regexp
	enTmpl string
}

// regIDRules implements the bidirectional identifier translation table from
// spec §4.A.8, used to derive the opposite-language regulation identifier
// for cross-lingual resource pairing. Unknown formats pass through
// unchanged.
var regIDRules = []regIDRule{
	{
		enToFr: regexp.MustCompile(`^C\.R\.C\._c\. (.+)$`),
		frTmpl: "C.R.C._ch. $1",
		frToEn: regexp.MustCompile(`^C\.R\.C\._ch\. (.+)$`),
		enTmpl: "C.R.C._c. $1",
	},
	{
		enToFr: regexp.MustCompile(`^SOR-(\d{2,4})-(\d+)$`),
		frTmpl: "DORS-$1-$2",
		frToEn: regexp.MustCompile(`^DORS-(\d{2,4})-(\d+)$`),
		enTmpl: "SOR-$1-$2",
	},
	{
		enToFr: regexp.MustCompile(`^SI-(\d{4})-(\d+)$`),
		frTmpl: "TR-$1-$2",
		frToEn: regexp.MustCompile(`^TR-(\d{4})-(\d+)$`),
		enTmpl: "SI-$1-$2",
	},
	{
		enToFr: regexp.MustCompile(`^(\d{4})_c\. (.+)_s\. (.+)$`),
		frTmpl: "$1_ch. $2_art. $3",
		frToEn: regexp.MustCompile(`^(\d{4})_ch\. (.+)_art\. (.+)$`),
		enTmpl: "$1_c. $2_s. $3",
	},
}

// TranslateRegulationID converts a regulation identifier between English
// and French conventions (spec §4.A.8). Unknown formats are returned
// unchanged.
func TranslateRegulationID(id string, from, to Language) string {
	if from == to {
		return id
	}
	for _, rule := range regIDRules {
		if from == LangEN && rule.enToFr.MatchString(id) {
			return rule.enToFr.ReplaceAllString(id, rule.frTmpl)
		}
		if from == LangFR && rule.frToEn.MatchString(id) {
			return rule.frToEn.ReplaceAllString(id, rule.enTmpl)
		}
	}
	return id
}
