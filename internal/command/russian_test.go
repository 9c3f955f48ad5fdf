package command

import (
	"testing"
	"time"
)

func TestPluralRuHours(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{1, "час"},
		{2, "часа"},
		{4, "часа"},
		{5, "часов"},
		{11, "часов"},
		{12, "часов"},
		{14, "часов"},
		{21, "час"},
		{22, "часа"},
		{25, "часов"},
		{101, "час"},
		{111, "часов"},
	}
	for _, tt := range tests {
		got := PluralRu(tt.n, "час", "часа", "часов")
		if got != tt.want {
			t.Errorf("PluralRu(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestMinutesForm(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{1, "1 минуту"},
		{3, "3 минуты"},
		{10, "10 минут"},
		{22, "22 минуты"},
	}
	for _, tt := range tests {
		if got := Minutes(tt.n); got != tt.want {
			t.Errorf("Minutes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestFormatDateRu(t *testing.T) {
	d := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) // Thursday
	if got := FormatDateRu(d); got != "четверг, 1 января 2026 года" {
		t.Errorf("FormatDateRu = %q", got)
	}
}
