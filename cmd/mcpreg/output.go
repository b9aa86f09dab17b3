package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"mcpreg/internal/app"
	"mcpreg/internal/domain"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

var statusColors = map[domain.ToolStatus]lipgloss.Color{
	domain.StatusActive:       lipgloss.Color("10"),
	domain.StatusBroken:       lipgloss.Color("9"),
	domain.StatusUnconfigured: lipgloss.Color("11"),
	domain.StatusArchived:     lipgloss.Color("241"),
}

func validateOutputFlag(format string) error {
	switch format {
	case outputTable, outputJSON, outputYAML:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
	}
}

func writeJSON(w io.Writer, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func writeYAML(w io.Writer, value any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(value); err != nil {
		return err
	}
	return enc.Close()
}

// writeStructured handles the json and yaml formats. It reports false for table.
func writeStructured(w io.Writer, format string, value any) (bool, error) {
	switch format {
	case outputJSON:
		return true, writeJSON(w, value)
	case outputYAML:
		return true, writeYAML(w, value)
	default:
		return false, nil
	}
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func renderStatus(status domain.ToolStatus) string {
	color, ok := statusColors[status]
	if !ok {
		return string(status)
	}
	return lipgloss.NewStyle().Foreground(color).Render(string(status))
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func printEntries(w io.Writer, format string, entries []domain.ListEntry) error {
	if done, err := writeStructured(w, format, entries); done {
		return err
	}
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, mutedStyle.Render("no tools found"))
		return err
	}
	t := newTable("NAME", "STATUS", "CONFIGURED", "VERSION", "TOOLS", "ERROR")
	for _, entry := range entries {
		t.Row(
			entry.Name,
			renderStatus(entry.Status),
			yesNo(entry.Configured),
			entry.Version,
			strconv.Itoa(entry.Tools),
			entry.Error,
		)
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func printDetail(w io.Writer, format string, detail domain.ToolDetail) error {
	if done, err := writeStructured(w, format, detail); done {
		return err
	}
	t := newTable("FIELD", "VALUE")
	t.Row("name", detail.Name)
	t.Row("status", renderStatus(detail.Status))
	t.Row("configured", yesNo(detail.Configured))
	t.Row("path", detail.Path)
	if detail.Description != "" {
		t.Row("description", detail.Description)
	}
	if detail.Version != "" {
		t.Row("version", detail.Version)
	}
	if detail.Error != "" {
		t.Row("error", detail.Error)
	}
	if len(detail.Tools) > 0 {
		t.Row("tools", strings.Join(detail.Tools, ", "))
	}
	t.Row("modified", detail.LastModified.Format(time.RFC3339))
	if detail.LastBuild != nil {
		t.Row("last build", describeBuild(*detail.LastBuild))
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func printSummary(w io.Writer, format string, summary domain.Summary) error {
	if done, err := writeStructured(w, format, summary); done {
		return err
	}
	counts := summary.Summary
	t := newTable("STATUS", "COUNT")
	t.Row(renderStatus(domain.StatusActive), strconv.Itoa(counts.Active))
	t.Row(renderStatus(domain.StatusBroken), strconv.Itoa(counts.Broken))
	t.Row(renderStatus(domain.StatusUnconfigured), strconv.Itoa(counts.Unconfigured))
	t.Row(renderStatus(domain.StatusArchived), strconv.Itoa(counts.Archived))
	t.Row("total", strconv.Itoa(counts.Total))
	t.Row("configured", strconv.Itoa(counts.Configured))
	if _, err := fmt.Fprintln(w, t.Render()); err != nil {
		return err
	}
	for _, broken := range summary.Details.Broken {
		if _, err := fmt.Fprintf(w, "%s %s: %s\n", renderStatus(domain.StatusBroken), broken.Name, broken.Error); err != nil {
			return err
		}
	}
	return nil
}

func printHistory(w io.Writer, format string, records []domain.BuildRecord) error {
	if done, err := writeStructured(w, format, records); done {
		return err
	}
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, mutedStyle.Render("no builds recorded"))
		return err
	}
	t := newTable("STARTED", "TOOL", "RESULT", "DURATION", "ERROR")
	for _, record := range records {
		t.Row(
			record.StartedAt.Format(time.RFC3339),
			record.Tool,
			buildResult(record),
			record.Duration.Round(time.Millisecond).String(),
			firstLine(record.Error),
		)
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// printChanges writes one line per change in table mode and one document per
// batch otherwise, so watch output stays streamable.
func printChanges(w io.Writer, format string, changes []domain.StatusChange) error {
	if len(changes) == 0 {
		return nil
	}
	if done, err := writeStructured(w, format, changes); done {
		return err
	}
	stamp := time.Now().Format(time.TimeOnly)
	for _, change := range changes {
		from := "(new)"
		if change.From != "" {
			from = renderStatus(change.From)
		}
		to := "(removed)"
		if change.To != "" {
			to = renderStatus(change.To)
		}
		if _, err := fmt.Fprintf(w, "%s %s %s -> %s\n", mutedStyle.Render(stamp), change.Name, from, to); err != nil {
			return err
		}
	}
	return nil
}

func printValidateReport(w io.Writer, format string, report app.ValidateReport) error {
	if done, err := writeStructured(w, format, report); done {
		return err
	}
	t := newTable("CHECK", "VALUE")
	if report.SettingsFile != "" {
		t.Row("settings file", report.SettingsFile)
	}
	t.Row("candidate root", report.CandidateRoot)
	t.Row("archive root", report.ArchiveRoot)
	t.Row("config document", report.ConfigDocument)
	t.Row("configured entries", strconv.Itoa(report.ConfiguredEntries))
	t.Row("candidate tools", strconv.Itoa(report.CandidateTools))
	t.Row("archived tools", strconv.Itoa(report.ArchivedTools))
	if report.RescanSchedule != "" {
		t.Row("rescan schedule", report.RescanSchedule)
	}
	if _, err := fmt.Fprintln(w, t.Render()); err != nil {
		return err
	}
	for _, problem := range report.Problems {
		if _, err := fmt.Fprintf(w, "%s %s\n", errorStyle.Render("problem:"), problem); err != nil {
			return err
		}
	}
	return nil
}

func describeBuild(record domain.BuildRecord) string {
	return fmt.Sprintf("%s at %s", buildResult(record), record.StartedAt.Format(time.RFC3339))
}

func buildResult(record domain.BuildRecord) string {
	if record.Succeeded {
		return string(domain.BuildResultSuccess)
	}
	return string(domain.BuildResultFailure)
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
