package main

import (
	"fmt"
	"testing"
)

func TestExtractParenthesizedSite(t *testing.T) {
	info := ExtractProductionInfo("Khách phản ánh sợi mì đen. Nơi SX: I-MBP (13:19 23)")
	if !info.HasTime || info.Time.Hour != 13 || info.Time.Minute != 19 {
		t.Fatalf("expected time 13:19, got %v hasTime=%v", info.Time, info.HasTime)
	}
	if info.Line != 2 || info.Machine != 3 {
		t.Fatalf("expected line 2 machine 3, got line %d machine %d", info.Line, info.Machine)
	}
}

func TestExtractSpacedTimeAndLineToken(t *testing.T) {
	info := ExtractProductionInfo("23 :12 23I")
	if !info.HasTime || info.Time.Hour != 23 || info.Time.Minute != 12 {
		t.Fatalf("expected time 23:12, got %v hasTime=%v", info.Time, info.HasTime)
	}
	if info.TimeRaw != "23:12" {
		t.Fatalf("time not normalized: %q", info.TimeRaw)
	}
	if info.Line != 2 || info.Machine != 3 {
		t.Fatalf("expected line 2 machine 3, got line %d machine %d", info.Line, info.Machine)
	}
}

func TestExtractLineRoundTrip(t *testing.T) {
	for line := 1; line <= 8; line++ {
		info := ExtractProductionInfo(fmt.Sprintf("%dI", line))
		if info.Line != line {
			t.Fatalf("line %d not recovered, got %d", line, info.Line)
		}
		if info.Machine != -1 {
			t.Fatalf("bare line %d should have no machine, got %d", line, info.Machine)
		}
	}
}

func TestExtractRejectsLineAboveEight(t *testing.T) {
	if info := ExtractProductionInfo("9I"); info.Line != 0 {
		t.Fatalf("line 9 should be rejected, got %d", info.Line)
	}
	if info := ExtractProductionInfo("Nơi SX: I-MBP (93I)"); info.Line != 0 {
		t.Fatalf("digit run starting with 9 should be rejected, got %d", info.Line)
	}
}

func TestExtractBareSiteMarkerWindow(t *testing.T) {
	info := ExtractProductionInfo("hàng bị lỗi bao bì Nơi SX: MBP 4I ca 2")
	if info.Line != 4 {
		t.Fatalf("expected line 4 from marker window, got %d", info.Line)
	}
}

func TestExtractNoSignalsLeavesFieldsUnset(t *testing.T) {
	info := ExtractProductionInfo("Khách chê mì không ngon")
	if info.HasTime || info.Line != 0 || info.Machine != -1 {
		t.Fatalf("nothing should be extracted: %+v", info)
	}
}

func TestExtractCorrectDate(t *testing.T) {
	got := ExtractCorrectDate("hạn dùng sai, Ngày SX: 11/04/2025 in mờ")
	if got != "11/04/2025" {
		t.Fatalf("expected embedded date, got %q", got)
	}
	if got := ExtractCorrectDate("không có ngày"); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

func TestExtractShortProductName(t *testing.T) {
	got := ExtractShortProductName("Mì Omachi sườn hầm ngũ quả 30gói x 90gr")
	if got != "Omachi sườn hầm ngũ quả" {
		t.Fatalf("got %q", got)
	}
	got = ExtractShortProductName("Mì Kokomi đại 90gr")
	if got != "Kokomi đại 90gr" {
		t.Fatalf("no packaging suffix: got %q", got)
	}
	if got := ExtractShortProductName("Nước tương Chinsu"); got != "Nước tương Chinsu" {
		t.Fatalf("unknown brand should pass through, got %q", got)
	}
}

func TestExtractPhoneNumber(t *testing.T) {
	if got := ExtractPhoneNumber("LH chị Hoa 0901234567"); got != "0901234567" {
		t.Fatalf("got %q", got)
	}
	if got := ExtractPhoneNumber("sđt 0901 234 567 gọi giờ hành chính"); got != "0901234567" {
		t.Fatalf("formatted number, got %q", got)
	}
	if got := ExtractPhoneNumber("không để lại số"); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}
