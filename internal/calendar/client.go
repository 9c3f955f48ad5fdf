// Package calendar reads events from a CalDAV bridge over a small JSON API.
package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/evahub/eva-gateway/internal/config"
	"github.com/evahub/eva-gateway/internal/logging"
)

var shortDaysRu = [7]string{"Вс", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"}

// Event is one calendar entry from the bridge.
type Event struct {
	ID       string    `json:"id"`
	Summary  string    `json:"summary"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	AllDay   bool      `json:"all_day"`
	Location string    `json:"location,omitempty"`
}

// Client fetches events for a user from the configured bridge URL.
type Client struct {
	url        string
	token      string
	httpClient *http.Client
	log        *slog.Logger
	now        func() time.Time
}

func NewClient(cfg config.CalendarConfig) *Client {
	return &Client{
		url:        strings.TrimRight(cfg.URL, "/"),
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        logging.WithComponent("calendar"),
		now:        time.Now,
	}
}

// Configured implements command.CalendarService.
func (c *Client) Configured() bool { return c.url != "" }

func (c *Client) events(ctx context.Context, userID string, from, to time.Time) ([]Event, error) {
	params := url.Values{
		"user": {userID},
		"from": {from.Format(time.RFC3339)},
		"to":   {to.Format(time.RFC3339)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.url+"/api/events?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("calendar bridge returned status %d: %s", resp.StatusCode, string(raw))
	}

	var events []Event
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	return events, nil
}

// TodayEvents returns today's events without formatting.
func (c *Client) TodayEvents(ctx context.Context, userID string) ([]Event, error) {
	now := c.now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return c.events(ctx, userID, start, start.AddDate(0, 0, 1))
}

// Today implements command.CalendarService.
func (c *Client) Today(ctx context.Context, userID string) (string, error) {
	events, err := c.TodayEvents(ctx, userID)
	if err != nil {
		c.log.Error("today events failed", "user", userID, "error", err)
		return fmt.Sprintf("Не удалось получить расписание: %v", err), nil
	}
	return FormatToday(events), nil
}

// Upcoming implements command.CalendarService.
func (c *Client) Upcoming(ctx context.Context, userID string, days int) (string, error) {
	if days < 1 {
		days = 7
	}
	now := c.now()
	events, err := c.events(ctx, userID, now, now.AddDate(0, 0, days))
	if err != nil {
		c.log.Error("upcoming events failed", "user", userID, "error", err)
		return fmt.Sprintf("Не удалось получить события: %v", err), nil
	}
	return FormatUpcoming(events, now), nil
}

func eventTime(e Event) string {
	if e.AllDay {
		return "весь день"
	}
	return e.Start.Format("15:04")
}

// FormatToday renders today's schedule for voice output.
func FormatToday(events []Event) string {
	if len(events) == 0 {
		return "На сегодня ничего не запланировано. Свободный день!"
	}
	lines := []string{"📅 Сегодня у тебя:"}
	for _, e := range events {
		lines = append(lines, fmt.Sprintf("  • %s - %s", eventTime(e), e.Summary))
	}
	return strings.Join(lines, "\n")
}

// FormatUpcoming renders events grouped by day, with Сегодня and Завтра
// headers for the next two days.
func FormatUpcoming(events []Event, now time.Time) string {
	if len(events) == 0 {
		return "У тебя нет запланированных событий."
	}

	today := now.Format("2006-01-02")
	tomorrow := now.AddDate(0, 0, 1).Format("2006-01-02")

	lines := []string{fmt.Sprintf("У тебя %d событий:", len(events))}
	currentDay := ""
	for _, e := range events {
		day := e.Start.Format("2006-01-02")
		if day != currentDay {
			currentDay = day
			var header string
			switch day {
			case today:
				header = "Сегодня"
			case tomorrow:
				header = "Завтра"
			default:
				header = fmt.Sprintf("%s, %s", shortDaysRu[e.Start.Weekday()], e.Start.Format("02.01"))
			}
			lines = append(lines, "\n📅 "+header+":")
		}
		lines = append(lines, fmt.Sprintf("  • %s - %s", eventTime(e), e.Summary))
	}
	return strings.Join(lines, "\n")
}
