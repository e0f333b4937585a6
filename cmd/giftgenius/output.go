package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kalambet/giftgenius/internal/profile"
	"github.com/kalambet/giftgenius/internal/session"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + colorReset
}

func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorGreen, "✓ "+msg))
}

func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorRed, "✗ "+msg))
}

func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorYellow, "⚠ "+msg))
}

func printStatus(label string, format string, args ...any) {
	val := fmt.Sprintf(format, args...)
	l := colorize(colorBold, label+":")
	fmt.Fprintf(os.Stderr, "  %s %s\n", l, val)
}

func printIdeas(w io.Writer, ideas []profile.GiftIdea) {
	if len(ideas) == 0 {
		fmt.Fprintln(w, "No gift ideas returned.")
		return
	}
	for i, g := range ideas {
		if i > 0 {
			fmt.Fprintln(w)
		}
		title := strings.TrimSpace(g.Emoji + " " + g.Title)
		fmt.Fprintf(w, "%s  %s  %s\n", colorize(colorBold, title), colorize(colorCyan, g.Category), g.Price)
		for _, line := range strings.Split(g.Reasoning, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				fmt.Fprintf(w, "    %s\n", line)
			}
		}
		if len(g.TagsUsed) > 0 {
			fmt.Fprintf(w, "    tags: %s\n", strings.Join(g.TagsUsed, " + "))
		}
		fmt.Fprintf(w, "    id: %s\n", g.ID)
	}
}

func printTags(w io.Writer, tags []string) {
	if len(tags) == 0 {
		fmt.Fprintln(w, "No suggestions returned.")
		return
	}
	for _, t := range tags {
		fmt.Fprintf(w, "  • %s\n", t)
	}
}

func printModels(w io.Writer, res modelsResponse) {
	for _, m := range res.Models {
		marker := " "
		if m.ID == res.Default {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %-28s %-10s %s\n", marker, m.ID, m.Provider, m.Name)
	}
}

func printSession(w io.Writer, v session.View) {
	fmt.Fprintf(w, "%s %s\n", colorize(colorBold, "Session"), v.ID)
	fmt.Fprintf(w, "  model:     %s\n", v.Model)
	fmt.Fprintf(w, "  recipient: %d ans, %s\n", v.Profile.Age, v.Profile.Relation)
	if labels := profile.InterestLabels(v.Profile.Interests); len(labels) > 0 {
		fmt.Fprintf(w, "  interests: %s\n", strings.Join(labels, ", "))
	}
	if len(v.Profile.Blacklist) > 0 {
		fmt.Fprintf(w, "  blacklist: %s\n", strings.Join(profile.Labels(v.Profile.Blacklist), ", "))
	}
	if len(v.Suggestions) > 0 {
		fmt.Fprintf(w, "  suggested: %s\n", strings.Join(v.Suggestions, ", "))
	}
	fmt.Fprintln(w)
	printIdeas(w, v.GiftIdeas)
}
