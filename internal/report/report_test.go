package report

import (
	"math"
	"strings"
	"testing"

	"gopvt/domain/frame"
	"gopvt/domain/pvt"
	"gopvt/domain/run"
)

func scoredTable(t *testing.T) *frame.Table {
	t.Helper()
	cols := pvt.DefaultColumns()
	table := frame.New(cols.User, cols.Session, cols.Response, pvt.ColRRT)
	rows := [][]any{
		{"alice", "s1", 280.0, 10.0},
		{"alice", "s2", 330.0, -10.0},
		{"bob", "s1", 300.0, 0.0},
	}
	for _, r := range rows {
		if err := table.AppendRow(r...); err != nil {
			t.Fatalf("AppendRow failed: %v", err)
		}
	}
	return table
}

func TestSummarize(t *testing.T) {
	rn := run.New("trials.csv", pvt.NewPipeline())
	summary, err := Summarize(rn, scoredTable(t), pvt.DefaultColumns())
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if summary.Sessions != 3 {
		t.Errorf("sessions = %d, want 3", summary.Sessions)
	}
	if len(summary.Users) != 2 {
		t.Fatalf("users = %d, want 2", len(summary.Users))
	}

	alice := summary.Users[0]
	if alice.UserID != "alice" {
		t.Fatalf("first user = %s, want alice (sorted order)", alice.UserID)
	}
	if alice.Sessions != 2 {
		t.Errorf("alice sessions = %d, want 2", alice.Sessions)
	}
	if math.Abs(alice.MeanRRT) > 1e-9 {
		t.Errorf("alice mean rrt = %v, want 0", alice.MeanRRT)
	}
	if alice.MinRRT != -10.0 || alice.MaxRRT != 10.0 {
		t.Errorf("alice min/max = %v/%v", alice.MinRRT, alice.MaxRRT)
	}

	bob := summary.Users[1]
	if bob.SDRRT != 0 {
		t.Errorf("bob sd = %v, want 0 for a single session", bob.SDRRT)
	}
}

func TestMarkdownRendering(t *testing.T) {
	rn := run.New("trials.csv", pvt.NewPipeline())
	summary, err := Summarize(rn, scoredTable(t), pvt.DefaultColumns())
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	md := summary.Markdown()
	for _, want := range []string{"alice", "bob", "trials.csv", "2.50"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestHTMLRendering(t *testing.T) {
	rn := run.New("trials.csv", pvt.NewPipeline(pvt.WithoutFiltering()))
	summary, err := Summarize(rn, scoredTable(t), pvt.DefaultColumns())
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	html := string(summary.HTML())
	if !strings.Contains(html, "<table>") {
		t.Errorf("expected an HTML table, got: %s", html)
	}
	if !strings.Contains(html, "disabled") {
		t.Error("expected the disabled-filtering note")
	}
}
