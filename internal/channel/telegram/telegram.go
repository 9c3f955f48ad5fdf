package telegram

import (
	"context"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/evahub/eva-gateway/internal/channel"
)

type Adapter struct {
	bot      *tgbotapi.BotAPI
	token    string
	enabled  bool
	incoming chan *channel.Message
}

func New(token string, enabled bool) *Adapter {
	return &Adapter{
		token:    token,
		enabled:  enabled,
		incoming: make(chan *channel.Message, 100),
	}
}

func (t *Adapter) Name() string {
	return "telegram"
}

func (t *Adapter) IsEnabled() bool {
	return t.enabled && t.token != ""
}

func (t *Adapter) Start(ctx context.Context) error {
	bot, err := tgbotapi.NewBotAPI(t.token)
	if err != nil {
		return err
	}
	t.bot = bot
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := t.bot.GetUpdatesChan(u)
	go func() {
		for update := range updates {
			if update.Message == nil {
				continue
			}
			t.incoming <- &channel.Message{
				ID:        strconv.Itoa(update.Message.MessageID),
				Channel:   "telegram",
				UserID:    strconv.FormatInt(update.Message.Chat.ID, 10),
				Content:   update.Message.Text,
				Metadata:  map[string]string{"from_id": strconv.FormatInt(update.Message.From.ID, 10)},
				Timestamp: int64(update.Message.Date),
			}
		}
	}()
	go func() {
		<-ctx.Done()
		t.bot.StopReceivingUpdates()
	}()
	return nil
}

func (t *Adapter) Stop() error {
	if t.bot != nil {
		t.bot.StopReceivingUpdates()
	}
	close(t.incoming)
	return nil
}

func (t *Adapter) SendMessage(userID string, resp *channel.Response) error {
	chatID, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return err
	}
	reply := tgbotapi.NewMessage(chatID, resp.Content)
	if _, err := t.bot.Send(reply); err != nil {
		return err
	}
	if resp.AudioURL != "" {
		voice := tgbotapi.NewVoice(chatID, tgbotapi.FileURL(resp.AudioURL))
		if _, err := t.bot.Send(voice); err != nil {
			return err
		}
	}
	return nil
}

func (t *Adapter) Incoming() <-chan *channel.Message {
	return t.incoming
}
