package main

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/wfunc/noodle-rush/internal/game"
	"github.com/wfunc/noodle-rush/internal/game/economy"
	"github.com/wfunc/noodle-rush/internal/game/period"
	"github.com/wfunc/noodle-rush/internal/game/rank"
	"github.com/wfunc/noodle-rush/internal/game/settlement"
	"github.com/wfunc/noodle-rush/internal/game/social"
	"github.com/wfunc/noodle-rush/internal/game/state"
)

var (
	accent  = color.New(color.FgCyan, color.Bold)
	success = color.New(color.FgGreen, color.Bold)
	warn    = color.New(color.FgYellow, color.Bold)
	danger  = color.New(color.FgRed, color.Bold)
	neutral = color.New(color.FgHiWhite)
)

func printInfo(format string, args ...interface{}) {
	neutral.Printf(format+"\n", args...)
}

func printPersonalTime(res social.PersonalTimeResult) {
	line := fmt.Sprintf("  personal time at %-8s burnout %3d -> %3d", res.Location, res.BurnoutBefore, res.BurnoutAfter)
	if res.Encounter.Met() {
		accent.Printf("%s  %s %s (level %d)\n", line, res.Encounter.Outcome, res.Encounter.ConfidantID, res.Encounter.Level)
		return
	}
	neutral.Println(line)
}

func printSettlement(report *game.DeliveryReport, out settlement.Outcome) {
	profit := success
	if out.TotalProfit < 0 {
		profit = danger
	}

	accent.Printf("period %3d ", out.Period)
	profit.Printf("profit %7d ", out.TotalProfit)
	neutral.Printf("(forecast %7d, %d+ %d- events) ", report.Result.TotalForecast,
		report.Result.PositiveEvents, report.Result.NegativeEvents)

	switch {
	case out.RankDelta > 0:
		success.Printf("rank %3d ▲%d ", out.RankAfter, out.RankDelta)
	case out.RankDelta < 0:
		danger.Printf("rank %3d ▼%d ", out.RankAfter, -out.RankDelta)
	default:
		neutral.Printf("rank %3d    ", out.RankAfter)
	}

	burnout := neutral
	if out.BurnoutAfter >= 80 {
		burnout = danger
	} else if out.BurnoutAfter >= 50 {
		burnout = warn
	}
	burnout.Printf("burnout %3d (%+d)\n", out.BurnoutAfter, out.BurnoutDelta)

	if out.GameOver {
		danger.Println("burnout reached the limit, game over")
	}
}

func printMeeting(started period.Started) {
	warn.Printf("investor meeting at the start of period %d (next in %d)\n", started.Period, started.InvestorClashIn)
}

func printSummary(status game.StatusInfo) {
	fmt.Println()
	accent.Println("summary")
	neutral.Printf("  period         %d\n", status.Period)
	neutral.Printf("  funds          %d\n", status.Funds)
	neutral.Printf("  total balance  %d\n", status.TotalBalance)
	neutral.Printf("  rank           %d (%s)\n", status.Rank, status.RankTitle)
	if status.NextThreshold > 0 {
		neutral.Printf("  next rank at   %d\n", status.NextThreshold)
	}
	neutral.Printf("  burnout        %d\n", status.Burnout)
	if status.GameOver {
		danger.Println("  game over")
	}
}

func printRanks() {
	table := rank.NewTable()
	accent.Printf("%-6s %-16s %s\n", "rank", "title", "total balance")

	title := ""
	for _, e := range table.Entries() {
		if e.Title == title {
			continue
		}
		title = e.Title
		neutral.Printf("%-6d %-16s %d\n", e.Rank, e.Title, e.BalanceRequired)
	}
}

func printForecast(doc *state.Document) {
	accent.Printf("%-8s %-18s %8s %8s %8s %8s\n", "id", "name", "sales", "upkeep", "staff", "profit")
	for _, f := range economy.Forecasts(doc) {
		profit := success
		if f.Profit < 0 {
			profit = danger
		}
		neutral.Printf("%-8s %-18s %8d %8d %8d ", f.RestaurantID, f.Name, f.EffectiveSales, f.Maintenance, f.StaffCost)
		profit.Printf("%8d\n", f.Profit)
	}
	neutral.Printf("total forecast %d\n", economy.ForecastProfit(doc))
}
