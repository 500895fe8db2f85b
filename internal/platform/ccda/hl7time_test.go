package ccda

import "testing"

func TestStorageDate(t *testing.T) {
	if got := StorageDate("20230704"); got != "2023-07-04" {
		t.Errorf("expected 2023-07-04, got %q", got)
	}
	if got := StorageDate("20230704120000"); got != "2023-07-04" {
		t.Errorf("expected timestamp truncated to date, got %q", got)
	}
	if got := StorageDate("2023-07-04"); got != "2023-07-04" {
		t.Errorf("expected storage form passthrough, got %q", got)
	}
}

func TestStorageDateAbsentValues(t *testing.T) {
	for _, in := range []string{"", "0", "garbage", "202"} {
		if got := StorageDate(in); got != "" {
			t.Errorf("StorageDate(%q): expected empty, got %q", in, got)
		}
	}
}

func TestStorageTime(t *testing.T) {
	if got := StorageTime("20240110093045"); got != "2024-01-10 09:30:45" {
		t.Errorf("unexpected storage time %q", got)
	}
	if got := StorageTime("20240110"); got != "2024-01-10 00:00:00" {
		t.Errorf("unexpected date-only storage time %q", got)
	}
}

func TestParseHL7TimeWithZoneSuffix(t *testing.T) {
	tm, err := ParseHL7Time("20240110093045-0500")
	if err != nil {
		t.Fatalf("ParseHL7Time: %v", err)
	}
	if tm.Format("2006-01-02 15:04:05") != "2024-01-10 09:30:45" {
		t.Errorf("unexpected parsed time %v", tm)
	}
}

func TestDigitsOnly(t *testing.T) {
	if got := DigitsOnly("tel:(555) 123-4567"); got != "5551234567" {
		t.Errorf("expected 5551234567, got %q", got)
	}
	if got := DigitsOnly(""); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}
