package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"cyberguard/internal/model"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	flagStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	labelStyle = lipgloss.NewStyle().Bold(true)
)

const timeLayout = "2006-01-02 15:04"

func shorten(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func when(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return ""
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...)
}

func renderPosts(w io.Writer, posts []model.Post) {
	if len(posts) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No posts yet."))
		return
	}
	t := newTable("ID", "TYPE", "POST", "LIKES", "COMMENTS", "FLAGGED", "CREATED")
	for _, p := range posts {
		text := p.Content
		if p.Title != "" {
			text = p.Title + ": " + p.Content
		}
		t.Row(p.ID, string(p.Type), shorten(text, 48),
			strconv.Itoa(len(p.Likes)), strconv.Itoa(len(p.Comments)), yesNo(p.Flagged), when(p.CreatedAt))
	}
	fmt.Fprintln(w, t.Render())
}

func renderPost(w io.Writer, p *model.Post) {
	heading := p.Title
	if heading == "" {
		heading = "Post " + p.ID
	}
	fmt.Fprintln(w, titleStyle.Render(heading))
	meta := fmt.Sprintf("%s · %s · %d likes", p.Type, when(p.CreatedAt), len(p.Likes))
	if p.IsAnonymous {
		meta += " · anonymous"
	}
	fmt.Fprintln(w, mutedStyle.Render(meta))
	if p.Flagged {
		fmt.Fprintln(w, flagStyle.Render("flagged for review"))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, p.Content)
	if len(p.Tags) > 0 {
		fmt.Fprintln(w, mutedStyle.Render("#"+strings.Join(p.Tags, " #")))
	}
	if len(p.Reactions) > 0 {
		fmt.Fprintln(w, reactionSummary(p.Reactions))
	}
	if len(p.Comments) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, labelStyle.Render(fmt.Sprintf("Comments (%d)", len(p.Comments))))
	for _, c := range p.Comments {
		renderComment(w, c, "  ")
		for _, r := range c.Replies {
			renderComment(w, r, "      ")
		}
	}
}

func renderComment(w io.Writer, c model.Comment, indent string) {
	author := c.User.Username
	if author == "" {
		author = "someone"
	}
	fmt.Fprintf(w, "%s%s %s\n", indent, labelStyle.Render(author), mutedStyle.Render("["+c.ID+"] "+when(c.CreatedAt)))
	fmt.Fprintf(w, "%s%s\n", indent, c.Text)
}

func reactionSummary(reactions []model.Reaction) string {
	counts := map[string]int{}
	var order []string
	for _, r := range reactions {
		if counts[r.Emoji] == 0 {
			order = append(order, r.Emoji)
		}
		counts[r.Emoji]++
	}
	parts := make([]string, 0, len(order))
	for _, e := range order {
		parts = append(parts, fmt.Sprintf("%s %d", e, counts[e]))
	}
	return strings.Join(parts, "  ")
}

func renderReports(w io.Writer, reports []model.Report) {
	if len(reports) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No reports."))
		return
	}
	t := newTable("ID", "TYPE", "SEVERITY", "STATUS", "DESCRIPTION", "FLAGGED", "CREATED")
	for _, r := range reports {
		t.Row(r.ID, r.Kind(), r.Severity, string(r.Status), shorten(r.Description, 40), yesNo(r.Flagged), when(r.CreatedAt))
	}
	fmt.Fprintln(w, t.Render())
}

func renderReport(w io.Writer, r *model.Report) {
	heading := r.Title
	if heading == "" {
		heading = "Report " + r.ID
	}
	fmt.Fprintln(w, titleStyle.Render(heading))
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("%s · %s severity · %s · %s", r.Kind(), r.Severity, r.Status, when(r.CreatedAt))))
	if r.Flagged {
		fmt.Fprintln(w, flagStyle.Render("flagged"))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, r.Description)
	for _, field := range []struct{ label, value string }{
		{"Platform", r.Platform},
		{"Location", r.Location},
		{"Date", r.Date},
		{"Role", r.YourRole},
		{"Evidence", r.Evidence},
	} {
		if field.value != "" {
			fmt.Fprintf(w, "%s %s\n", labelStyle.Render(field.label+":"), field.value)
		}
	}
	if len(r.Reactions) > 0 {
		fmt.Fprintln(w, reactionSummary(r.Reactions))
	}
	if len(r.Updates) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, labelStyle.Render("Progress"))
		for _, u := range r.Updates {
			fmt.Fprintf(w, "  %s %s\n", mutedStyle.Render(when(u.CreatedAt)+" "+u.CreatedBy), u.Message)
		}
	}
}

func renderUsers(w io.Writer, users []model.User) {
	if len(users) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No users."))
		return
	}
	t := newTable("ID", "USERNAME", "EMAIL", "ROLE", "JOINED")
	for _, u := range users {
		t.Row(u.ID, u.Username, u.Email, u.EffectiveRole(), when(u.CreatedAt))
	}
	fmt.Fprintln(w, t.Render())
}

func renderUser(w io.Writer, u *model.User) {
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Username:"), u.Username)
	if u.Email != "" {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Email:"), u.Email)
	}
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Role:"), u.EffectiveRole())
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("ID:"), u.ID)
}

func renderStats(w io.Writer, s *model.DashboardStats) {
	fmt.Fprintln(w, titleStyle.Render("Dashboard"))
	t := newTable("METRIC", "COUNT").
		Row("Total reports", strconv.Itoa(s.TotalReports)).
		Row("Flagged reports", strconv.Itoa(s.FlaggedReports)).
		Row("Total posts", strconv.Itoa(s.TotalPosts)).
		Row("Flagged posts", strconv.Itoa(s.FlaggedPosts))
	for _, k := range sortedKeys(s.ReportsByStatus) {
		t.Row("Reports "+k, strconv.Itoa(s.ReportsByStatus[model.ReportStatus(k)]))
	}
	for _, k := range sortedKeys(s.ReportsBySeverity) {
		t.Row("Severity "+k, strconv.Itoa(s.ReportsBySeverity[k]))
	}
	fmt.Fprintln(w, t.Render())
}

func sortedKeys[K ~string](m map[K]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	return keys
}
