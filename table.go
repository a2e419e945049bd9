package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Table is an in-memory worksheet: ordered headers plus string cells.
// Upstream spreadsheets vary in column naming and may repeat headers, so
// lookups go through a normalized alias index built once at load time.
type Table struct {
	Headers []string
	Rows    [][]string

	index map[string]int
}

// Column aliases, canonical field first. The sheets this feeds on mix
// Vietnamese and English headers ("Line" vs "Xưởng"), so every lookup site
// names a canonical field and resolution happens here.
var columnAliases = map[string][]string{
	"ticket":          {"Mã ticket", "ticket", "ticket_id"},
	"receivedDate":    {"Ngày tiếp nhận", "received_date"},
	"productionDate":  {"Ngày SX", "production_date", "ngay sx"},
	"narrative":       {"Nội dung phản hồi", "narrative", "content"},
	"item":            {"Item", "item_code", "Mã hàng"},
	"productName":     {"Tên sản phẩm", "Sản phẩm/Dịch vụ", "product_name"},
	"product":         {"Sản phẩm", "product"},
	"province":        {"Tỉnh", "province"},
	"quantity":        {"Số lượng (ly/hộp/chai/gói/hủ)", "Số lượng", "quantity"},
	"defectName":      {"Tên lỗi", "defect_name"},
	"defectQty":       {"SL pack/ cây lỗi", "defect_qty"},
	"responsibleUnit": {"Bộ phận chịu trách nhiệm", "responsible_unit"},
	"group":           {"MĐG", "MDG", "group_code"},
	"line":            {"Line", "Xưởng", "Line / Xưởng", "line"},
	"shift":           {"Ca", "shift"},
	"time":            {"Giờ", "time", "hour"},
	"qa":              {"QA", "qa"},
	"leader":          {"Tên Trưởng ca", "Tên Trường ca", "Trưởng ca", "TruongCa", "leader"},
	"leaderCode":      {"Trưởng ca", "TruongCa", "leader_code"},
	"area":            {"Khu vực", "area"},
	"equipment":       {"Thiết bị", "Tên NVL", "equipment"},
	"method":          {"Phương pháp", "method"},
	"parameter":       {"Chỉ tiêu kiểm", "parameter"},
	"frequency":       {"Tần suất (ngày)", "Tần suất", "frequency_days"},
	"lastEvent":       {"Ngày vệ sinh gần nhất", "Ngày kiểm tra gần nhất", "Ngày kiểm định kỳ", "last_event_date"},
	"nextDue":         {"Ngày kế hoạch vệ sinh tiếp theo", "Kế hoạch lấy mẫu tiếp theo", "Thời hạn KĐK", "next_due_date"},
	"status":          {"Trạng thái", "status"},
}

// NewTable builds a table and its lookup index. Duplicate headers get _N
// suffixes, mirroring how the source sheets are loaded when get_all_records
// rejects them.
func NewTable(headers []string, rows [][]string) *Table {
	seen := make(map[string]int, len(headers))
	unique := make([]string, 0, len(headers))
	for _, h := range headers {
		if n, dup := seen[h]; dup {
			seen[h] = n + 1
			unique = append(unique, fmt.Sprintf("%s_%d", h, n+1))
		} else {
			seen[h] = 0
			unique = append(unique, h)
		}
	}

	t := &Table{Headers: unique, Rows: rows, index: make(map[string]int, len(unique))}
	for i, h := range unique {
		key := normalizeHeader(h)
		if _, exists := t.index[key]; !exists {
			t.index[key] = i
		}
	}
	return t
}

func normalizeHeader(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	value = strings.ReplaceAll(value, " ", "")
	value = strings.ReplaceAll(value, "_", "")
	value = strings.ReplaceAll(value, "-", "")
	return value
}

// Column resolves a canonical field to a column number via the alias table.
// A renamed duplicate ("QA_1") still resolves to its base field when the
// base header is absent.
func (t *Table) Column(field string) (int, bool) {
	aliases, ok := columnAliases[field]
	if !ok {
		aliases = []string{field}
	}
	for _, name := range aliases {
		if idx, ok := t.index[normalizeHeader(name)]; ok {
			return idx, true
		}
	}
	// Fall back to prefix match for suffixed duplicates.
	for _, name := range aliases {
		want := normalizeHeader(name)
		for i, h := range t.Headers {
			if strings.HasPrefix(normalizeHeader(h), want) {
				return i, true
			}
		}
	}
	return -1, false
}

// Cell returns the trimmed cell at (row, field), or "" when either is absent.
func (t *Table) Cell(row int, field string) string {
	col, ok := t.Column(field)
	if !ok || row < 0 || row >= len(t.Rows) {
		return ""
	}
	cells := t.Rows[row]
	if col >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[col])
}

// IntCell parses a numeric cell, tolerating float renderings like "2.0"
// that sheets produce for integer columns.
func (t *Table) IntCell(row int, field string) (int, bool) {
	raw := t.Cell(row, field)
	if raw == "" {
		return 0, false
	}
	f, err := cast.ToFloat64E(raw)
	if err != nil {
		return 0, false
	}
	return int(f), true
}

func LoadCSVTable(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return readCSVTable(file, path)
}

func readCSVTable(r io.Reader, name string) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", name, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no data in %s", name)
	}
	return NewTable(records[0], records[1:]), nil
}

// DownloadCSVTable fetches a published CSV with bounded retry and a fixed
// delay, matching the upstream file-download policy.
func DownloadCSVTable(url string, retries int, delay time.Duration) (*Table, error) {
	if retries < 1 {
		retries = 1
	}
	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		resp, err := externalHTTPClient.Get(url)
		if err == nil && resp.StatusCode == http.StatusOK {
			t, readErr := readCSVTable(resp.Body, url)
			resp.Body.Close()
			return t, readErr
		}
		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("unexpected status %d", resp.StatusCode)
			resp.Body.Close()
		}
		log.Printf("download attempt %d/%d failed for %s: %v", attempt, retries, url, lastErr)
		if attempt < retries {
			time.Sleep(delay)
		}
	}
	return nil, fmt.Errorf("download failed after %d attempts: %w", retries, lastErr)
}

func (t *Table) SaveCSV(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(t.Headers); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
