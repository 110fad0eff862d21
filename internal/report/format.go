package report

import (
	"fmt"
	"strings"
)

// Display renders a Record as markdown-ish text for the web UI and CLI.
// Sections whose fields are absent from the record are skipped.
func Display(rec *Record) string {
	if info, ok := rec.ErrorInfo(); ok {
		return displayError(info)
	}

	rep, err := rec.Report()
	if err != nil {
		// Fall back to the raw JSON if the typed view cannot be built.
		if raw, jerr := rec.JSON(); jerr == nil {
			return string(raw)
		}
		return err.Error()
	}

	var out []string

	if pd := rep.PatientDetails; pd != nil {
		out = append(out, "## Patient Details")
		if pd.Name != "" {
			out = append(out, fmt.Sprintf("**Name:** %s", pd.Name))
		}
		if pd.Age != "" {
			out = append(out, fmt.Sprintf("**Age:** %s", pd.Age))
		}
		if pd.Gender != "" {
			out = append(out, fmt.Sprintf("**Gender:** %s", pd.Gender))
		}
		if pd.ID != "" {
			out = append(out, fmt.Sprintf("**ID:** %s", pd.ID))
		}
		out = append(out, "")
	}

	if rep.TestDate != "" {
		out = append(out, fmt.Sprintf("**Test Date:** %s", rep.TestDate), "")
	}

	if len(rep.BloodParameters) > 0 {
		out = append(out, "## Blood Parameters")
		for _, p := range rep.BloodParameters {
			tag := "[NORMAL]"
			if p.Abnormal() {
				tag = "[ABNORMAL]"
			}
			out = append(out, fmt.Sprintf("**%s:** %s (Reference: %s) %s",
				p.Parameter, orNA(p.Value), orNA(p.ReferenceRange), tag))
		}
		out = append(out, "")
	}

	if len(rep.Summary) > 0 {
		out = append(out, "## Summary")
		for i, point := range rep.Summary {
			out = append(out, fmt.Sprintf("%d. %s", i+1, point))
		}
		out = append(out, "")
	}

	if len(rep.Disclaimer) > 0 {
		out = append(out, "## Disclaimer")
		for i, point := range rep.Disclaimer {
			out = append(out, fmt.Sprintf("%d. %s", i+1, point))
		}
	}

	return strings.Join(out, "\n")
}

func displayError(info ErrorInfo) string {
	out := []string{
		"## Analysis Failed",
		fmt.Sprintf("**Error:** %s", info.Error),
	}
	if info.RawResponse != "" {
		out = append(out, "", "Raw model response (truncated):", "", info.RawResponse)
	}
	return strings.Join(out, "\n")
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
