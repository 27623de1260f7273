package core

import (
	"encoding/json"
	"testing"
)

func TestSeverity_String(t *testing.T) {
	cases := map[Severity]string{
		SeverityInfo:     "info",
		SeverityLow:      "low",
		SeverityMedium:   "medium",
		SeverityHigh:     "high",
		SeverityCritical: "critical",
		Severity(99):     "unknown",
	}
	for sev, want := range cases {
		if got := sev.String(); got != want {
			t.Errorf("Severity(%d).String() = %q, want %q", int(sev), got, want)
		}
	}
}

func TestSeverity_Ordering(t *testing.T) {
	if !(SeverityInfo < SeverityLow && SeverityLow < SeverityMedium &&
		SeverityMedium < SeverityHigh && SeverityHigh < SeverityCritical) {
		t.Error("severity levels should be ordered info < low < medium < high < critical")
	}
}

func TestParseSeverity_UnknownMapsToInfo(t *testing.T) {
	if got := ParseSeverity("catastrophic"); got != SeverityInfo {
		t.Errorf("ParseSeverity(catastrophic) = %v, want info", got)
	}
}

func TestSeverity_JSONRoundTrip(t *testing.T) {
	type wrapper struct {
		Sev Severity `json:"severity"`
	}

	data, err := json.Marshal(wrapper{Sev: SeverityHigh})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"severity":"high"}` {
		t.Errorf("marshaled = %s, want {\"severity\":\"high\"}", data)
	}

	var w wrapper
	if err := json.Unmarshal([]byte(`{"severity":"critical"}`), &w); err != nil {
		t.Fatal(err)
	}
	if w.Sev != SeverityCritical {
		t.Errorf("unmarshaled = %v, want critical", w.Sev)
	}
}
