package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/reviewly/reviewly/internal/infrastructure/reviewly"
	"github.com/reviewly/reviewly/internal/services/chat"
)

var (
	accent  = lipgloss.Color("#8BC34A")
	muted   = lipgloss.Color("#7a8699")
	danger  = lipgloss.Color("#e53935")
	primary = lipgloss.Color("#2196F3")

	userStyle    = lipgloss.NewStyle().Bold(true).Foreground(primary)
	botStyle     = lipgloss.NewStyle().Bold(true).Foreground(accent)
	timeStyle    = lipgloss.NewStyle().Foreground(muted)
	statusStyle  = lipgloss.NewStyle().Italic(true).Foreground(muted)
	errorStyle   = lipgloss.NewStyle().Foreground(danger)
	headingStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

func speakerLabel(m chat.ChatMessage) string {
	name := botStyle.Render("assistant")
	if m.Sender == chat.SenderUser {
		name = userStyle.Render("you")
	}
	return fmt.Sprintf("%s %s ", timeStyle.Render("["+m.TimeLabel()+"]"), name)
}

// streamPrinter writes a conversation to a terminal as it streams, printing
// only the text each snapshot adds.
type streamPrinter struct {
	w          io.Writer
	printedID  string
	printedLen int
	lastStatus string
	open       bool
}

func newStreamPrinter(w io.Writer) *streamPrinter {
	return &streamPrinter{w: w}
}

func (p *streamPrinter) Update(snap chat.Snapshot) {
	if len(snap.Messages) == 0 {
		return
	}
	tail := snap.Messages[len(snap.Messages)-1]
	if tail.Sender != chat.SenderBot {
		return
	}

	if tail.IsStatus {
		if tail.Text != p.lastStatus {
			p.endLine()
			fmt.Fprintln(p.w, statusStyle.Render("… "+tail.Text))
			p.lastStatus = tail.Text
		}
		return
	}

	if tail.ID != p.printedID {
		p.endLine()
		p.printedID = tail.ID
		p.printedLen = 0
		fmt.Fprint(p.w, speakerLabel(tail))
		p.open = true
	}

	if len(tail.Text) > p.printedLen {
		text := tail.Text[p.printedLen:]
		if strings.HasPrefix(tail.Text, "Error: ") && snap.State == chat.StateErrored {
			text = errorStyle.Render(text)
		}
		fmt.Fprint(p.w, text)
		p.printedLen = len(tail.Text)
	}
}

// Finish terminates the current line once a response has ended
func (p *streamPrinter) Finish() {
	p.endLine()
	p.lastStatus = ""
}

func (p *streamPrinter) endLine() {
	if p.open {
		fmt.Fprintln(p.w)
		p.open = false
	}
}

func printAdditional(w io.Writer, data chat.AdditionalData) {
	if len(data.Products) > 0 {
		fmt.Fprintln(w, headingStyle.Render("Related products"))
		fmt.Fprintln(w, productTable(data.Products))
		return
	}
	ids := make([]string, 0, len(data.Reviews))
	for _, id := range data.Reviews {
		ids = append(ids, strconv.Itoa(id))
	}
	fmt.Fprintln(w, statusStyle.Render("Based on reviews "+strings.Join(ids, ", ")))
}

func productTable(products []reviewly.Product) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "Title", "Category", "Rating", "Price")
	for _, p := range products {
		t.Row(
			strconv.Itoa(p.ProductID),
			truncate(p.Title, 48),
			p.MainCategory,
			fmt.Sprintf("%.1f (%d)", p.AverageRating, p.RatingNumber),
			fmt.Sprintf("%.2f", p.Price),
		)
	}
	return t.String()
}

func reviewTable(reviews []reviewly.Review) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "Rating", "Title", "Helpful")
	for _, r := range reviews {
		t.Row(strconv.Itoa(r.ReviewID), fmt.Sprintf("%.1f", r.Rating), truncate(r.Title, 60), strconv.Itoa(r.HelpfulVote))
	}
	return t.String()
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
