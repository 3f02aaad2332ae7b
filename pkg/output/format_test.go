package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/iwvelando/cashflow-forecast/internal/chart"
	"github.com/iwvelando/cashflow-forecast/internal/forecast"
	"github.com/iwvelando/cashflow-forecast/internal/health"
	"github.com/iwvelando/cashflow-forecast/internal/model"
	"github.com/iwvelando/cashflow-forecast/pkg/testutil"
	"golang.org/x/text/language"
)

func testResult(t *testing.T) Result {
	t.Helper()
	inputs := testutil.BasicInputs()
	inputs.SingleShotExpenses = []model.SingleShotExpense{
		{ID: "car", Name: `Car "repair"`, Amount: 160000, Date: testutil.Date("2025-06-10")},
	}
	projection := forecast.GetProjection(nil, inputs, forecast.Options{
		StartDate:   testutil.Date("2025-06-01"),
		HorizonDays: 14,
	})
	return Result{
		Projection: projection,
		Health:     health.Classify(health.Input{OptimisticDangerDays: projection.Optimistic.DangerDayCount}),
		Locale:     language.English,
		Warnings:   []string{"fixed expense gym is inactive and will be skipped"},
	}
}

func TestPrettyFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := PrettyFormat(&buf, testResult(t)); err != nil {
		t.Fatalf("PrettyFormat() error = %v", err)
	}
	output := buf.String()

	expected := []string{
		"--- Cashflow from 2025-06-01 to 2025-06-14 ---",
		"Starting balance: R$1,000.00",
		"Health: danger.",
		"Warning: fixed expense gym is inactive",
		"Date       | Best case       | Worst case      | Notes",
		"2025-06-01 | R$1,000.00 | R$1,000.00 | ",
		"2025-06-05 | R$1,500.00 | R$1,500.00 | +Salary",
		`2025-06-10 | !R$-400.00 | !R$-400.00 | -Rent,-Car "repair"`,
		"optimistic: income R$500.00, expenses R$1,900.00, end R$-400.00, 5 danger days",
	}
	for _, s := range expected {
		if !strings.Contains(output, s) {
			t.Errorf("PrettyFormat output missing %q\n%s", s, output)
		}
	}
}

func TestPrettyFormatFollowsLocale(t *testing.T) {
	r := testResult(t)
	r.Locale = language.BrazilianPortuguese

	var buf bytes.Buffer
	if err := PrettyFormat(&buf, r); err != nil {
		t.Fatalf("PrettyFormat() error = %v", err)
	}
	expected := "Starting balance: R$" + chart.Amount(r.Projection.StartingBalance, r.Locale)
	if !strings.Contains(buf.String(), expected) {
		t.Errorf("PrettyFormat output missing %q\n%s", expected, buf.String())
	}
}

func TestCsvFormat(t *testing.T) {
	output := CsvString(testResult(t))
	lines := strings.Split(strings.TrimSpace(output), "\n")

	if len(lines) != 15 {
		t.Fatalf("CsvFormat produced %d lines, expected header + 14 days", len(lines))
	}
	if lines[0] != `"date","optimistic","pessimistic","optimistic danger","pessimistic danger","income","expenses","notes"` {
		t.Errorf("header = %s", lines[0])
	}
	if lines[5] != `"2025-06-05","1500.00","1500.00","false","false","500.00","0.00","+Salary"` {
		t.Errorf("June 5 = %s", lines[5])
	}
	if lines[10] != `"2025-06-10","-400.00","-400.00","true","true","0.00","1900.00","-Rent,-Car ""repair"""` {
		t.Errorf("June 10 = %s", lines[10])
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := JSONFormat(&buf, testResult(t)); err != nil {
		t.Fatalf("JSONFormat() error = %v", err)
	}

	var doc Document
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not a Document: %v", err)
	}
	if len(doc.Points) != 14 || len(doc.Projection.Days) != 14 {
		t.Errorf("points/days = %d/%d, expected 14", len(doc.Points), len(doc.Projection.Days))
	}
	if doc.Points[0].Label != "Jun 1" {
		t.Errorf("first label = %q", doc.Points[0].Label)
	}
	if len(doc.Summary.DangerRanges) != 1 || doc.Summary.DangerRanges[0].StartIndex != 9 {
		t.Errorf("DangerRanges = %+v", doc.Summary.DangerRanges)
	}
	if doc.Health.Status != health.StatusDanger {
		t.Errorf("Health.Status = %s", doc.Health.Status)
	}
}

func TestJSONFormatEmptyWarnings(t *testing.T) {
	r := testResult(t)
	r.Warnings = nil
	var buf bytes.Buffer
	if err := JSONFormat(&buf, r); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"warnings": []`) {
		t.Error("nil warnings should encode as an empty list")
	}
}

func TestWrite(t *testing.T) {
	r := testResult(t)
	for _, format := range []string{"", "pretty", "csv", "json"} {
		var buf bytes.Buffer
		if err := Write(&buf, format, r); err != nil {
			t.Errorf("Write(%q) error = %v", format, err)
		}
		if buf.Len() == 0 {
			t.Errorf("Write(%q) wrote nothing", format)
		}
	}
	if err := Write(&bytes.Buffer{}, "xml", r); err == nil {
		t.Error("Write(xml) expected an error")
	}
}
