package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders the report as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString("# Referral Rewards Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Reward token: `%s`\n\n", r.RewardToken))

	sb.WriteString("## Reward Balances\n\n")
	if len(r.Balances) > 0 {
		sb.WriteString("| Account | Amount | Last Update |\n")
		sb.WriteString("|---------|--------|-------------|\n")
		for _, b := range r.Balances {
			sb.WriteString(fmt.Sprintf("| %s | %s | %d |\n", b.Account, b.Amount, b.LastUpdate))
		}
	} else {
		sb.WriteString("No balances accrued.\n")
	}
	sb.WriteString("\n")

	sb.WriteString("## Lifetime Volume\n\n")
	if len(r.Volumes) > 0 {
		sb.WriteString("| Account | Pair | As Trader | As Referrer | As Grandparent |\n")
		sb.WriteString("|---------|------|-----------|-------------|----------------|\n")
		for _, v := range r.Volumes {
			pair := v.Pair
			if pair == "" {
				pair = "(global)"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
				v.Account, pair, v.AsTrader, v.AsReferrer, v.AsGrandparent))
		}
	} else {
		sb.WriteString("No volume recorded.\n")
	}
	sb.WriteString("\n")

	sb.WriteString("## Lottery Standings\n\n")
	if len(r.Rounds) > 0 {
		for _, round := range r.Rounds {
			sb.WriteString(fmt.Sprintf("### Round %d (%d tickets)\n\n", round.Round, round.TotalTickets))
			if len(round.Entries) == 0 {
				sb.WriteString("No entries.\n\n")
				continue
			}
			sb.WriteString("| User | Tickets |\n")
			sb.WriteString("|------|--------|\n")
			for _, e := range round.Entries {
				sb.WriteString(fmt.Sprintf("| %s | %d |\n", e.User, e.Tickets))
			}
			sb.WriteString("\n")
		}
	} else {
		sb.WriteString("No rounds recorded.\n")
	}

	return sb.String()
}
