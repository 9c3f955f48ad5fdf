// Package weather provides current conditions and forecasts from the
// OpenWeatherMap API, formatted as Russian voice-friendly text.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/evahub/eva-gateway/internal/command"
	"github.com/evahub/eva-gateway/internal/config"
	"github.com/evahub/eva-gateway/internal/logging"
)

const baseURL = "https://api.openweathermap.org/data/2.5"

var descriptionsRu = map[string]string{
	"clear sky":         "ясно",
	"few clouds":        "небольшая облачность",
	"scattered clouds":  "переменная облачность",
	"broken clouds":     "облачно с прояснениями",
	"overcast clouds":   "пасмурно",
	"shower rain":       "ливень",
	"rain":              "дождь",
	"light rain":        "небольшой дождь",
	"moderate rain":     "умеренный дождь",
	"heavy rain":        "сильный дождь",
	"thunderstorm":      "гроза",
	"snow":              "снег",
	"light snow":        "небольшой снег",
	"heavy snow":        "сильный снег",
	"mist":              "туман",
	"fog":               "туман",
	"haze":              "дымка",
}

var weekdaysRu = map[time.Weekday]string{
	time.Monday:    "Понедельник",
	time.Tuesday:   "Вторник",
	time.Wednesday: "Среда",
	time.Thursday:  "Четверг",
	time.Friday:    "Пятница",
	time.Saturday:  "Суббота",
	time.Sunday:    "Воскресенье",
}

// Current is a snapshot of conditions in one city.
type Current struct {
	City          string
	Temp          int
	FeelsLike     int
	Humidity      int
	WindSpeed     float64
	DescriptionRu string
}

// ForecastDay is a daily min/max summary.
type ForecastDay struct {
	Day           time.Weekday
	TempMin       int
	TempMax       int
	DescriptionRu string
}

// Service is an OpenWeatherMap client.
type Service struct {
	apiKey      string
	defaultCity string
	units       string
	httpClient  *http.Client
	log         *slog.Logger
}

func NewService(cfg config.WeatherConfig) *Service {
	units := cfg.Units
	if units == "" {
		units = "metric"
	}
	return &Service{
		apiKey:      cfg.APIKey,
		defaultCity: cfg.DefaultCity,
		units:       units,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		log:         logging.WithComponent("weather"),
	}
}

// Configured implements command.WeatherService.
func (s *Service) Configured() bool { return s.apiKey != "" }

func (s *Service) city(city string) string {
	if city != "" {
		return city
	}
	if s.defaultCity != "" {
		return s.defaultCity
	}
	return "Kyiv"
}

func (s *Service) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	params.Set("appid", s.apiKey)
	params.Set("units", s.units)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		baseURL+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("weather API returned status %d: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type currentResponse struct {
	Name    string `json:"name"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

// Conditions fetches the current conditions for a city. An empty city falls
// back to the configured default.
func (s *Service) Conditions(ctx context.Context, city string) (Current, error) {
	if !s.Configured() {
		return Current{}, command.ErrNotConfigured
	}
	city = s.city(city)

	var data currentResponse
	params := url.Values{"q": {city}, "lang": {"en"}}
	if err := s.get(ctx, "/weather", params, &data); err != nil {
		return Current{}, err
	}

	desc := ""
	if len(data.Weather) > 0 {
		desc = data.Weather[0].Description
	}
	return Current{
		City:          data.Name,
		Temp:          int(math.Round(data.Main.Temp)),
		FeelsLike:     int(math.Round(data.Main.FeelsLike)),
		Humidity:      data.Main.Humidity,
		WindSpeed:     math.Round(data.Wind.Speed*10) / 10,
		DescriptionRu: translate(desc),
	}, nil
}

// Current implements command.WeatherService.
func (s *Service) Current(ctx context.Context, city string) (string, error) {
	cur, err := s.Conditions(ctx, city)
	if err != nil {
		if errors.Is(err, command.ErrNotConfigured) {
			return "", err
		}
		s.log.Error("current weather failed", "city", city, "error", err)
		return fmt.Sprintf("Не удалось получить погоду: %v", err), nil
	}
	return FormatCurrent(cur), nil
}

type forecastResponse struct {
	City struct {
		Name string `json:"name"`
	} `json:"city"`
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
	} `json:"list"`
}

// Forecast implements command.WeatherService. Days are built from the
// three-hourly feed, eight samples per day.
func (s *Service) Forecast(ctx context.Context, city string, days int) (string, error) {
	if !s.Configured() {
		return "", command.ErrNotConfigured
	}
	city = s.city(city)
	if days < 1 {
		days = 3
	}

	var data forecastResponse
	params := url.Values{"q": {city}, "cnt": {strconv.Itoa(days * 8)}}
	if err := s.get(ctx, "/forecast", params, &data); err != nil {
		s.log.Error("forecast failed", "city", city, "error", err)
		return fmt.Sprintf("Не удалось получить прогноз: %v", err), nil
	}

	type bucket struct {
		day   time.Weekday
		temps []float64
		descs []string
	}
	daily := map[string]*bucket{}
	var order []string
	for _, item := range data.List {
		ts := time.Unix(item.Dt, 0)
		key := ts.Format("2006-01-02")
		b, ok := daily[key]
		if !ok {
			b = &bucket{day: ts.Weekday()}
			daily[key] = b
			order = append(order, key)
		}
		b.temps = append(b.temps, item.Main.Temp)
		if len(item.Weather) > 0 {
			b.descs = append(b.descs, item.Weather[0].Description)
		}
	}
	sort.Strings(order)
	if len(order) > days {
		order = order[:days]
	}

	forecast := make([]ForecastDay, 0, len(order))
	for _, key := range order {
		b := daily[key]
		lo, hi := b.temps[0], b.temps[0]
		for _, t := range b.temps {
			lo, hi = math.Min(lo, t), math.Max(hi, t)
		}
		forecast = append(forecast, ForecastDay{
			Day:           b.day,
			TempMin:       int(math.Round(lo)),
			TempMax:       int(math.Round(hi)),
			DescriptionRu: translate(mostCommon(b.descs)),
		})
	}
	return FormatForecast(data.City.Name, forecast), nil
}

func translate(desc string) string {
	if ru, ok := descriptionsRu[desc]; ok {
		return ru
	}
	return desc
}

func mostCommon(values []string) string {
	counts := map[string]int{}
	best := ""
	for _, v := range values {
		counts[v]++
		if best == "" || counts[v] > counts[best] {
			best = v
		}
	}
	return best
}

// FormatCurrent renders conditions as one spoken sentence. Feels-like is
// mentioned only when it differs noticeably, wind and humidity only when
// they are worth a warning.
func FormatCurrent(c Current) string {
	var feel string
	switch {
	case c.Temp <= -15:
		feel = "Очень холодно"
	case c.Temp <= -5:
		feel = "Холодно"
	case c.Temp <= 5:
		feel = "Прохладно"
	case c.Temp <= 15:
		feel = "Умеренно"
	case c.Temp <= 25:
		feel = "Тепло"
	default:
		feel = "Жарко"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "В городе %s сейчас %s, %d°C", c.City, c.DescriptionRu, c.Temp)
	if abs(c.Temp-c.FeelsLike) >= 3 {
		fmt.Fprintf(&sb, " (ощущается как %d°C)", c.FeelsLike)
	}
	fmt.Fprintf(&sb, ". %s.", feel)
	if c.WindSpeed > 10 {
		fmt.Fprintf(&sb, " Ветер %g м/с.", c.WindSpeed)
	}
	if c.Humidity > 80 {
		sb.WriteString(" Высокая влажность.")
	}
	return sb.String()
}

// FormatForecast renders the daily summaries as a bullet list.
func FormatForecast(city string, days []ForecastDay) string {
	lines := []string{fmt.Sprintf("Прогноз погоды для %s:", city)}
	for _, d := range days {
		lines = append(lines, fmt.Sprintf("• %s: %d..%d°C, %s",
			weekdaysRu[d.Day], d.TempMin, d.TempMax, d.DescriptionRu))
	}
	return strings.Join(lines, "\n")
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
