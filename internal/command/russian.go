package command

import (
	"fmt"
	"time"
)

var weekdaysRu = []string{
	"воскресенье", "понедельник", "вторник", "среда",
	"четверг", "пятница", "суббота",
}

var monthsRu = []string{
	"января", "февраля", "марта", "апреля", "мая", "июня",
	"июля", "августа", "сентября", "октября", "ноября", "декабря",
}

// PluralRu picks the correct Russian noun form for a count:
// 1 час, 2 часа, 5 часов (with the 11-14 exception).
func PluralRu(n int, one, few, many string) string {
	n10, n100 := n%10, n%100
	switch {
	case n10 == 1 && n100 != 11:
		return one
	case n10 >= 2 && n10 <= 4 && (n100 < 12 || n100 > 14):
		return few
	default:
		return many
	}
}

// Hours formats an hour count with the agreeing noun.
func Hours(n int) string {
	return fmt.Sprintf("%d %s", n, PluralRu(n, "час", "часа", "часов"))
}

// Minutes formats a minute count with the agreeing noun.
func Minutes(n int) string {
	return fmt.Sprintf("%d %s", n, PluralRu(n, "минуту", "минуты", "минут"))
}

// Days formats a day count with the agreeing noun.
func Days(n int) string {
	return fmt.Sprintf("%d %s", n, PluralRu(n, "день", "дня", "дней"))
}

// FormatDateRu renders "понедельник, 2 сентября 2026 года".
func FormatDateRu(t time.Time) string {
	return fmt.Sprintf("%s, %d %s %d года",
		weekdaysRu[int(t.Weekday())], t.Day(), monthsRu[int(t.Month())-1], t.Year())
}
