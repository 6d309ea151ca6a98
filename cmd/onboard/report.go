package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"email-onboarding-be/internal/dto"
	"email-onboarding-be/pkg/merge"

	"github.com/fatih/color"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printWarnings(w io.Writer, warnings []merge.Warning) {
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintln(w, color.YellowString("\nWarnings (%d)", len(warnings)))
	for _, warn := range warnings {
		fmt.Fprintf(w, "  %s %s: %s\n", color.YellowString("!"), warn.Code, warn.Message)
	}
}

func printTree(w io.Writer, t *merge.MergedTaxonomy) {
	_ = t.Walk(func(v merge.NodeVisit) error {
		line := strings.Repeat("  ", v.Depth+1) + v.Node.Name
		if v.Node.Color != "" {
			line += " " + color.New(color.Faint).Sprint(v.Node.Color)
		}
		if v.Node.Expanded {
			line += " " + color.New(color.Faint).Sprint("(tenant)")
		}
		fmt.Fprintln(w, line)
		return nil
	})
}

func printPreview(w io.Writer, res *dto.PreviewResponse) {
	fmt.Fprintln(w, color.CyanString("Merged %s", strings.Join(res.BusinessTypes, " + ")))

	fmt.Fprintln(w, color.CyanString("\nLabels (%d)", res.NodeCount))
	printTree(w, res.Taxonomy)

	fmt.Fprintln(w, color.CyanString("\nClassifier"))
	fmt.Fprintf(w, "  categories  %s\n", strings.Join(res.Classification.Targets(), ", "))
	if e := res.Classification.Escalation; e.EmergencyResponseMinutes > 0 || e.SLAHours > 0 {
		fmt.Fprintf(w, "  escalation  %d min emergency, %dh SLA\n", e.EmergencyResponseMinutes, e.SLAHours)
	}
	fmt.Fprintf(w, "  auto-reply  %s (min confidence %.2f)\n",
		strings.Join(res.Classification.AutoReply.EnabledCategories, ", "), res.Classification.AutoReply.MinConfidence)

	fmt.Fprintln(w, color.CyanString("\nVoice"))
	fmt.Fprintf(w, "  tone        %s\n", res.Behavior.Tone)
	if res.Behavior.SignOff != "" {
		fmt.Fprintf(w, "  sign-off    %s\n", res.Behavior.SignOff)
	}

	printWarnings(w, res.Warnings)
}

func printDeployment(w io.Writer, res *dto.DeployResponse, withDocument bool) {
	r := res.Reconciliation
	fmt.Fprintln(w, color.CyanString("Deployment %s on %s", res.JobId, r.Provider))

	for _, e := range r.Created {
		fmt.Fprintf(w, "  %s %s %s\n", color.GreenString("+"), e.Path, color.New(color.Faint).Sprint(e.ID))
	}
	for _, e := range r.Matched {
		fmt.Fprintf(w, "  %s %s %s\n", color.New(color.Faint).Sprint("="), e.Path, color.New(color.Faint).Sprint(e.ID))
	}
	for _, f := range r.Failed {
		hint := ""
		if f.Retriable {
			hint = " (retriable)"
		}
		fmt.Fprintf(w, "  %s %s: %s%s\n", color.RedString("x"), f.Path, f.Reason, hint)
	}

	summary := fmt.Sprintf("\n%d created, %d matched, %d failed", len(r.Created), len(r.Matched), len(r.Failed))
	switch res.Status {
	case dto.DeploymentStatusCompleted:
		fmt.Fprintln(w, color.GreenString("%s", summary))
	default:
		fmt.Fprintln(w, color.RedString("%s", summary))
	}
	if len(res.Unset) > 0 {
		fmt.Fprintln(w, color.YellowString("Unset placeholders: %s", strings.Join(res.Unset, ", ")))
	}
	printWarnings(w, res.Warnings)

	if withDocument && res.Document != "" {
		fmt.Fprintln(w, color.CyanString("\nWorkflow document"))
		fmt.Fprintln(w, res.Document)
	}
}
