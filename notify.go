package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/slack-go/slack"
)

// PostRunSummary sends the headline numbers to the report channel. Posting
// is best-effort; the files on disk are the record of truth.
func PostRunSummary(cfg Config, run ReconRun, summary ComplaintSummary, dueCount, missingCount int, analysis string) error {
	if !cfg.SlackConfigured() {
		log.Printf("slack not configured, skipping run summary post")
		return nil
	}
	api := slack.New(cfg.SlackBotToken)

	var b strings.Builder
	fmt.Fprintf(&b, "*Đối chiếu KNKH %s*\n", run.StartedAt.Format("02/01/2006"))
	rate := 0.0
	if summary.TotalComplaints > 0 {
		rate = float64(summary.Matched) * 100 / float64(summary.TotalComplaints)
	}
	fmt.Fprintf(&b, "Khiếu nại: %d | Đã đối chiếu: %d (%.1f%%) | Chưa: %d\n",
		summary.TotalComplaints, summary.Matched, rate, summary.Unmatched)
	if dueCount > 0 {
		fmt.Fprintf(&b, "Hạng mục đến hạn/quá hạn: %d\n", dueCount)
	}
	if missingCount > 0 {
		fmt.Fprintf(&b, "Hạng mục thiếu dữ liệu: %d\n", missingCount)
	}
	if len(summary.TopDefects) > 0 {
		top := summary.TopDefects[0]
		fmt.Fprintf(&b, "Lỗi nhiều nhất: %s (%d)\n", top.Value, top.Count)
	}
	if run.ReportPath != "" {
		fmt.Fprintf(&b, "Báo cáo: %s\n", run.ReportPath)
	}
	if analysis != "" {
		fmt.Fprintf(&b, "\n%s\n", analysis)
	}

	_, _, err := api.PostMessage(cfg.ReportChannelID, slack.MsgOptionText(b.String(), false))
	if err != nil {
		log.Printf("run summary post error: %v", err)
	}
	return err
}
