package digest

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"smartmoney/internal/model"
)

const (
	maxDigestReasons = 3
	dateLayout       = "2006-01-02"

	NoPicksLine = "No qualifying trades this cycle."
)

// Format renders the digest. It always returns a message, even with no picks.
func Format(picks []model.Pick, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Smart Money Digest (%s)\n", now.UTC().Format(dateLayout))
	if len(picks) == 0 {
		b.WriteString("\n" + NoPicksLine)
		return b.String()
	}
	for i, p := range picks {
		b.WriteString("\n")
		fmt.Fprintf(&b, "%d. %s (score %d)\n", i+1, p.Ticker, p.Score)
		fmt.Fprintf(&b, "   %s | %s\n", p.Side, actorLine(p))
		fmt.Fprintf(&b, "   %s: $%s | Filed: %s\n", sizeLabel(p.Kind), humanize.Comma(p.Size), p.FilingDate.UTC().Format(dateLayout))
		if len(p.Reasons) > 0 {
			reasons := p.Reasons
			if len(reasons) > maxDigestReasons {
				reasons = reasons[:maxDigestReasons]
			}
			fmt.Fprintf(&b, "   Reasons: %s\n", strings.Join(reasons, "; "))
		}
		if p.Link != "" {
			fmt.Fprintf(&b, "   %s\n", p.Link)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatAlert renders the immediate high-conviction notification.
func FormatAlert(p model.Pick) string {
	var b strings.Builder
	fmt.Fprintf(&b, "HIGH CONVICTION (%s)\n\n", kindLabel(p.Kind))
	fmt.Fprintf(&b, "%s - %d\n", p.Ticker, p.Score)
	fmt.Fprintf(&b, "%s\n", actorLine(p))
	fmt.Fprintf(&b, "%s %s: $%s\n", p.Side, strings.ToLower(sizeLabel(p.Kind)), humanize.Comma(p.Size))
	b.WriteString("Reasons:")
	for _, r := range p.Reasons {
		b.WriteString("\n- " + r)
	}
	if p.Link != "" {
		b.WriteString("\n" + p.Link)
	}
	return b.String()
}

func actorLine(p model.Pick) string {
	if p.Role == "" {
		return p.Actor
	}
	return fmt.Sprintf("%s (%s)", p.Actor, p.Role)
}

func sizeLabel(k model.Kind) string {
	if k == model.KindInsider {
		return "Value"
	}
	return "Amount"
}

func kindLabel(k model.Kind) string {
	if k == model.KindInsider {
		return "Insider"
	}
	return "Gov"
}
