package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/evahub/eva-gateway/internal/channel"
)

type Adapter struct {
	token    string
	enabled  bool
	session  *discordgo.Session
	incoming chan *channel.Message
}

func New(token string, enabled bool) *Adapter {
	return &Adapter{
		token:    token,
		enabled:  enabled,
		incoming: make(chan *channel.Message, 100),
	}
}

func (d *Adapter) Name() string {
	return "discord"
}

func (d *Adapter) IsEnabled() bool {
	return d.enabled && d.token != ""
}

func (d *Adapter) Start(ctx context.Context) error {
	session, err := discordgo.New("Bot " + d.token)
	if err != nil {
		return err
	}
	d.session = session

	session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		// Ignore bot messages
		if m.Author.Bot {
			return
		}

		// Only respond in DMs or when mentioned
		if m.GuildID != "" && !d.isMentioned(s.State.User.ID, m.Mentions) {
			return
		}

		d.incoming <- &channel.Message{
			ID:      m.ID,
			Channel: "discord",
			UserID:  m.Author.ID,
			Content: m.Content,
			Metadata: map[string]string{
				"guild_id":    m.GuildID,
				"channel_id":  m.ChannelID,
				"author_name": m.Author.Username,
			},
			Timestamp: m.Timestamp.Unix(),
		}
	})

	if err := session.Open(); err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		session.Close()
	}()

	return nil
}

func (d *Adapter) Stop() error {
	if d.session != nil {
		d.session.Close()
	}
	close(d.incoming)
	return nil
}

func (d *Adapter) SendMessage(userID string, resp *channel.Response) error {
	ch, err := d.session.UserChannelCreate(userID)
	if err != nil {
		return err
	}
	_, err = d.session.ChannelMessageSend(ch.ID, resp.Content)
	return err
}

func (d *Adapter) Incoming() <-chan *channel.Message {
	return d.incoming
}

func (d *Adapter) isMentioned(botID string, mentions []*discordgo.User) bool {
	for _, mention := range mentions {
		if mention.ID == botID {
			return true
		}
	}
	return false
}
