// Package report renders per-run cohort summaries of relative response
// times as markdown and HTML.
package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"gonum.org/v1/gonum/stat"

	"gopvt/domain/frame"
	"gopvt/domain/pvt"
	"gopvt/domain/run"
)

// UserSummary aggregates one user's scored sessions
type UserSummary struct {
	UserID   string
	Sessions int
	MeanRRT  float64
	SDRRT    float64
	MinRRT   float64
	MaxRRT   float64
}

// Summary describes one pipeline run across its cohort
type Summary struct {
	Run      run.Run
	Users    []UserSummary
	Sessions int
}

// Summarize reduces a scored table to per-user RRT statistics.
func Summarize(rn run.Run, scored *frame.Table, cols pvt.Columns) (*Summary, error) {
	groups, err := scored.GroupBy(cols.User)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Run: rn, Sessions: scored.Len()}
	for _, g := range groups {
		rrts, err := g.Rows.Floats(pvt.ColRRT)
		if err != nil {
			return nil, err
		}
		us := UserSummary{
			UserID:   fmt.Sprint(g.Key),
			Sessions: len(rrts),
			MeanRRT:  stat.Mean(rrts, nil),
			MinRRT:   math.Inf(1),
			MaxRRT:   math.Inf(-1),
		}
		if len(rrts) > 1 {
			us.SDRRT = stat.StdDev(rrts, nil)
		}
		for _, v := range rrts {
			us.MinRRT = math.Min(us.MinRRT, v)
			us.MaxRRT = math.Max(us.MaxRRT, v)
		}
		summary.Users = append(summary.Users, us)
	}
	return summary, nil
}

// Markdown renders the summary as a markdown document.
func (s *Summary) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Alertness report for run %s\n\n", s.Run.ID)
	fmt.Fprintf(&b, "Source: `%s`  \n", s.Run.Source)
	fmt.Fprintf(&b, "Session statistic: %s, baseline statistic: %s  \n",
		s.Run.SessionStatistic, s.Run.BaselineStatistic)
	if s.Run.FilteringFactor != nil {
		fmt.Fprintf(&b, "Outlier filtering: mean ± %.2f·SD  \n", *s.Run.FilteringFactor)
	} else {
		b.WriteString("Outlier filtering: disabled  \n")
	}
	fmt.Fprintf(&b, "Scored sessions: %d across %d users\n\n", s.Sessions, len(s.Users))

	b.WriteString("| user | sessions | mean rrt | sd | min | max |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, u := range s.Users {
		fmt.Fprintf(&b, "| %s | %d | %.2f%% | %.2f | %.2f%% | %.2f%% |\n",
			u.UserID, u.Sessions, u.MeanRRT, u.SDRRT, u.MinRRT, u.MaxRRT)
	}
	b.WriteString("\nPositive rrt means faster than the user's baseline, negative slower.\n")
	return b.String()
}

// HTML renders the summary through the markdown renderer.
func (s *Summary) HTML() []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML([]byte(s.Markdown()), p, renderer)
}
