package bot

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/shopspring/decimal"

	"stakechat/bot/common"
	"stakechat/events"
	"stakechat/models"
)

func settlementEmbed(e events.WagerSettledEvent) *discordgo.MessageEmbed {
	s := e.Settlement
	embed := &discordgo.MessageEmbed{
		Title:       "🏁 Wager settled",
		Description: e.Content,
		Color:       common.ColorSuccess,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Wager ID: %s", e.WagerID),
		},
	}
	if s == nil {
		return embed
	}
	embed.Timestamp = s.SettledAt.Format(time.RFC3339)

	switch s.Mode {
	case models.SettlementModeUnanimousLikes:
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Outcome",
			Value: "Unanimous likes",
		})
	case models.SettlementModeReviewerDecision:
		value := fmt.Sprintf("%s picked **%s**", s.DecidingReviewer, s.DecidingLetters)
		if s.DecidingReviewer == "" {
			value = "No reviewer decision"
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Outcome",
			Value: value,
		})
	}

	if len(s.Winners) == 0 {
		embed.Color = common.ColorWarning
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Winners",
			Value: "*Nobody, stakes returned*",
		})
	} else {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Winners",
			Value: common.TruncateField(strings.Join(s.Winners, ", ")),
		})
	}

	if payouts := amountLines(s.Distributed); payouts != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "💰 Payouts", Value: payouts})
	}
	if returned := amountLines(s.Returned); returned != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "↩️ Returned", Value: returned})
	}
	if penalties := amountLines(s.PenaltyDistributed); penalties != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "⚖️ Penalty shares", Value: penalties})
	}
	if s.ReviewerBonus.IsPositive() {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Reviewer bonus",
			Value:  fmt.Sprintf("%s: %s", s.DecidingReviewer, common.FormatAmount(s.ReviewerBonus)),
			Inline: true,
		})
	}
	if s.Unallocated.IsPositive() {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Unallocated",
			Value:  common.FormatAmount(s.Unallocated),
			Inline: true,
		})
	}
	return embed
}

func reviewerPhaseEmbed(e events.ReviewerPhaseStartedEvent) *discordgo.MessageEmbed {
	deadline := e.StartedAt.Add(time.Duration(e.DurationMinutes) * time.Minute)
	return &discordgo.MessageEmbed{
		Title: "🕵️ Reviewer decision needed",
		Description: fmt.Sprintf("**%s** (reviewer #%d) has until %s to guess and vote.",
			e.Reviewer, e.ReviewerIndex+1, common.FormatDiscordTimestamp(deadline, "R")),
		Color: common.ColorPrimary,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Wager ID: %s", e.WagerID),
		},
		Timestamp: e.StartedAt.Format(time.RFC3339),
	}
}

func publishedEmbed(e events.WagerPublishedEvent) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "📣 Wager made public",
		Description: fmt.Sprintf("%s shared a wager with everyone.", e.By),
		Color:       common.ColorInfo,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Wager ID: %s", e.WagerID),
		},
	}
}

// amountLines renders non-zero amounts one per line, sorted by name
func amountLines(amounts map[string]decimal.Decimal) string {
	var lines []string
	for _, name := range slices.Sorted(maps.Keys(amounts)) {
		if amounts[name].IsPositive() {
			lines = append(lines, fmt.Sprintf("%s: %s", name, common.FormatAmount(amounts[name])))
		}
	}
	return common.TruncateField(strings.Join(lines, "\n"))
}
