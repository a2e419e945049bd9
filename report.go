package main

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Headers of the annotated complaint sheet, in output order. Derived
// columns come after the source passthrough so the team's pivot tables
// keep working.
var annotatedHeaders = []string{
	"Mã ticket",
	"Ngày tiếp nhận",
	"Ngày SX",
	"Item",
	"Tên sản phẩm",
	"Tên sản phẩm ngắn",
	"Tỉnh",
	"Tên lỗi",
	"SL pack/ cây lỗi",
	"Line",
	"Máy",
	"Giờ",
	"Ca",
	"QA",
	"Tên Trưởng ca",
	"Tháng sản xuất",
	"Năm sản xuất",
	"Tuần nhận khiếu nại",
	"Tháng nhận khiếu nại",
	"Năm nhận khiếu nại",
	"Số điện thoại",
	"Ghi chú đối chiếu",
}

// BuildAnnotatedTable renders matched complaints as the output sheet,
// derived date columns included.
func BuildAnnotatedTable(records []ComplaintRecord) *Table {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		hour := ""
		if r.HasTime {
			hour = r.ExtractedTime.String()
		}
		machine := ""
		if r.ExtractedMachine >= 0 {
			machine = fmt.Sprintf("%d", r.ExtractedMachine)
		}
		rows = append(rows, []string{
			r.TicketID,
			formatDateDDMMYYYY(r.ReceivedDate),
			formatDateDDMMYYYY(r.ProductionDate),
			r.ItemCode,
			r.ProductName,
			r.ShortProductName,
			r.Province,
			r.DefectName,
			r.DefectQty,
			formatIntOrEmpty(r.ExtractedLine),
			machine,
			hour,
			formatIntOrEmpty(r.Shift),
			r.MatchedQA,
			r.MatchedLeader,
			formatIntOrEmpty(monthOf(r.ProductionDate)),
			formatIntOrEmpty(yearOf(r.ProductionDate)),
			formatIntOrEmpty(isoWeekOf(r.ReceivedDate)),
			formatIntOrEmpty(monthOf(r.ReceivedDate)),
			formatIntOrEmpty(yearOf(r.ReceivedDate)),
			r.PhoneNumber,
			r.Trace.String(),
		})
	}
	return NewTable(annotatedHeaders, rows)
}

// planDueList is one schedule's contribution to the report.
type planDueList struct {
	Name    string
	Entries []ScheduleEntry
	Missing int
}

const unmatchedTraceLimit = 20

// BuildReportMarkdown renders the run report. Section order follows how
// the team reads it: headline numbers, then defect hot spots, then the
// due lists, then unmatched traces for follow-up.
func BuildReportMarkdown(run ReconRun, summary ComplaintSummary, plans []planDueList, unmatched []ComplaintRecord, reportDate time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "### Báo cáo đối chiếu KNKH - %s\n\n", reportDate.Format("02/01/2006"))

	fmt.Fprintf(&b, "#### Tổng quan\n")
	fmt.Fprintf(&b, "- Tổng số khiếu nại: **%d**\n", summary.TotalComplaints)
	rate := 0.0
	if summary.TotalComplaints > 0 {
		rate = float64(summary.Matched) * 100 / float64(summary.TotalComplaints)
	}
	fmt.Fprintf(&b, "- Đã đối chiếu QA: **%d** (%.1f%%)\n", summary.Matched, rate)
	fmt.Fprintf(&b, "- Chưa đối chiếu: **%d**\n", summary.Unmatched)
	if summary.TotalDefectQty > 0 {
		fmt.Fprintf(&b, "- Tổng SL lỗi: **%.0f**\n", summary.TotalDefectQty)
	}
	b.WriteString("\n")

	writeCountSection(&b, "Lỗi thường gặp", summary.TopDefects)
	writeCountSection(&b, "Theo sản phẩm", summary.ByProduct)
	writeCountSection(&b, "Theo line", summary.ByLine)
	writeCountSection(&b, "Theo ca", summary.ByShift)

	if len(summary.Unusual) > 0 {
		b.WriteString("#### Tổ hợp bất thường\n")
		for _, u := range summary.Unusual {
			fmt.Fprintf(&b, "- **%s** × **%s**: %d lần (kỳ vọng %.1f)\n", u.A, u.B, u.Observed, u.Expected)
		}
		b.WriteString("\n")
	}

	for _, plan := range plans {
		fmt.Fprintf(&b, "#### %s\n", plan.Name)
		if len(plan.Entries) == 0 {
			b.WriteString("- Không có hạng mục đến hạn\n")
		}
		for _, e := range plan.Entries {
			label := e.Equipment
			if label == "" {
				label = e.Parameter
			}
			if e.Area != "" {
				label = e.Area + " / " + label
			}
			fmt.Fprintf(&b, "- %s: **%s** (hạn %s)\n", label, e.Status, formatDateDDMMYYYY(e.NextDueDate))
		}
		if plan.Missing > 0 {
			fmt.Fprintf(&b, "- Thiếu dữ liệu ngày thực hiện: %d hạng mục\n", plan.Missing)
		}
		b.WriteString("\n")
	}

	if len(unmatched) > 0 {
		b.WriteString("#### Khiếu nại chưa đối chiếu\n")
		for i, r := range unmatched {
			if i >= unmatchedTraceLimit {
				fmt.Fprintf(&b, "- ... và %d khiếu nại khác\n", len(unmatched)-unmatchedTraceLimit)
				break
			}
			fmt.Fprintf(&b, "- %s (%s): %s\n", r.TicketID, r.ItemCode, r.Trace.String())
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Run: %s\n", run.ID)
	return b.String()
}

func writeCountSection(b *strings.Builder, title string, counts []CategoryCount) {
	if len(counts) == 0 {
		return
	}
	fmt.Fprintf(b, "#### %s\n", title)
	for _, c := range counts {
		fmt.Fprintf(b, "- %s: %d\n", c.Value, c.Count)
	}
	b.WriteString("\n")
}

func WriteReportFile(content, outputDir string, reportDate time.Time, teamName string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", err
	}
	filename := fmt.Sprintf("%s_%s.md", teamName, reportDate.Format("20060102"))
	path := filepath.Join(outputDir, filename)
	return path, os.WriteFile(path, []byte(content), 0644)
}

// WriteEmailDraftFile drops a ready-to-send .eml next to the report so the
// operator can forward it without copy-pasting.
func WriteEmailDraftFile(body, outputDir string, reportDate time.Time, subjectPrefix string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", err
	}
	filename := fmt.Sprintf("%s_%s.eml", sanitizeFilename(subjectPrefix), reportDate.Format("20060102"))
	path := filepath.Join(outputDir, filename)
	subject := fmt.Sprintf("%s %s", subjectPrefix, reportDate.Format("02/01/2006"))
	return path, os.WriteFile(path, []byte(buildEML(subject, body)), 0644)
}

func buildEML(subject, body string) string {
	const boundary = "qabot-alt"
	headers := []string{
		"MIME-Version: 1.0",
		fmt.Sprintf("Content-Type: multipart/alternative; boundary=%q", boundary),
		fmt.Sprintf("Subject: %s", subject),
	}
	plain := normalizeCRLF(markdownToPlain(body))

	var out strings.Builder
	out.WriteString(strings.Join(headers, "\r\n"))
	out.WriteString("\r\n\r\n")
	out.WriteString("--" + boundary + "\r\n")
	out.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	out.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
	out.WriteString(plain)
	if !strings.HasSuffix(plain, "\r\n") {
		out.WriteString("\r\n")
	}
	out.WriteString("\r\n--" + boundary + "\r\n")
	out.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	out.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
	out.WriteString(markdownToHTML(body))
	out.WriteString("\r\n--" + boundary + "--\r\n")
	return out.String()
}

func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_", " ", "_")
	return replacer.Replace(s)
}

func normalizeCRLF(s string) string {
	normalized := strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(normalized, "\n", "\r\n")
}

func markdownToPlain(body string) string {
	var out []string
	prevBlank := false
	for _, line := range strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			line = strings.TrimSpace(strings.TrimLeft(trimmed, "# "))
		}
		line = strings.ReplaceAll(line, "**", "")
		if strings.TrimSpace(line) == "" {
			if prevBlank {
				continue
			}
			prevBlank = true
			out = append(out, "")
			continue
		}
		prevBlank = false
		out = append(out, line)
	}
	return strings.TrimRight(strings.Join(out, "\n"), "\n") + "\n"
}

var boldTokenRe = regexp.MustCompile(`\*\*([^*]+)\*\*`)

// markdownToHTML handles exactly the markdown the report emits: ###/####
// headings, flat "- " bullets and **bold**.
func markdownToHTML(body string) string {
	var b strings.Builder
	b.WriteString(`<html><body style="font-family: Calibri, Arial, sans-serif; font-size: 11pt; color: #1f1f1f; line-height: 1.35;">`)
	inList := false
	closeList := func() {
		if inList {
			b.WriteString(`</ul>`)
			inList = false
		}
	}

	for _, raw := range strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(raw)
		switch {
		case trimmed == "":
			closeList()
			b.WriteString(`<div style="height: 10px;"></div>`)
		case strings.HasPrefix(trimmed, "#"):
			closeList()
			text := renderInlineBold(strings.TrimSpace(strings.TrimLeft(trimmed, "# ")))
			b.WriteString(`<div style="font-weight: 700; margin: 12px 0 6px 0;">` + text + `</div>`)
		case strings.HasPrefix(trimmed, "- "):
			if !inList {
				b.WriteString(`<ul style="margin: 0 0 0 18px; padding-left: 18px; list-style-type: disc;">`)
				inList = true
			}
			b.WriteString(`<li style="margin: 2px 0;">` + renderInlineBold(strings.TrimPrefix(trimmed, "- ")) + `</li>`)
		default:
			closeList()
			b.WriteString(`<div style="margin: 2px 0;">` + renderInlineBold(trimmed) + `</div>`)
		}
	}
	closeList()
	b.WriteString(`</body></html>`)
	return b.String()
}

func renderInlineBold(s string) string {
	matches := boldTokenRe.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return html.EscapeString(s)
	}
	var out strings.Builder
	last := 0
	for _, m := range matches {
		out.WriteString(html.EscapeString(s[last:m[0]]))
		out.WriteString("<strong>")
		out.WriteString(html.EscapeString(s[m[2]:m[3]]))
		out.WriteString("</strong>")
		last = m[1]
	}
	out.WriteString(html.EscapeString(s[last:]))
	return out.String()
}
