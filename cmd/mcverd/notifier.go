package main

import (
	"fmt"
	"html"
	"io"

	"github.com/VictoriaMetrics/metrics"
	"github.com/pgaskin/mcver"
	"github.com/rs/zerolog"
)

type Notifier interface {
	NotifyRelease(old, new Release)
}

type TelegramNotifier struct {
	t   *Telegram
	s   mcver.Scheme
	c   map[string]*cS
	m   *metrics.Set
	log zerolog.Logger
}

type cS struct {
	f    bool
	c, u string
	s, e *metrics.Counter
}

// NewTelegramNotifier creates a new TelegramNotifier. If any chats failed to
// register, each error is returned in the list. Chats in forcedChats are also
// notified about the first release seen after starting, and must also be in
// chats.
func NewTelegramNotifier(t *Telegram, s mcver.Scheme, log zerolog.Logger, chats []string, forcedChats []string) (*TelegramNotifier, []error) {
	var errs []error
	ac := make(map[string]*cS, len(chats))

	m := metrics.NewSet()
	m.NewGauge(`mcverd_telegram_chats_registered_count{bot="`+t.GetUsername()+`"}`, func() float64 { return float64(len(ac)) })
	m.NewGauge(`mcverd_telegram_chats_errored_count{bot="`+t.GetUsername()+`"}`, func() float64 { return float64(len(errs)) })

	for _, c := range chats {
		if _, ok := ac[c]; ok {
			errs = append(errs, fmt.Errorf("initialize chat %#v: duplicate chat", c))
			continue
		}
		u, err := t.GetChatUsername(c)
		if err != nil {
			errs = append(errs, fmt.Errorf("initialize chat %#v: %w", c, err))
			continue
		}
		ac[c] = &cS{
			f: false,
			c: c,
			u: u,
			s: m.NewCounter(`mcverd_telegram_messages_sent_total{bot="` + t.GetUsername() + `",chat="` + c + `"}`),
			e: m.NewCounter(`mcverd_telegram_messages_errored_total{bot="` + t.GetUsername() + `",chat="` + c + `"}`),
		}
	}

	for _, fc := range forcedChats {
		if x, ok := ac[fc]; ok {
			x.f = true
		}
	}

	return &TelegramNotifier{t, s, ac, m, log}, errs
}

func (t *TelegramNotifier) NotifyRelease(old, new Release) {
	msg := t.message(new)
	for _, c := range t.c {
		if old.Zero() && !c.f {
			t.log.Info().
				Str("what", "telegram").
				Str("chat", c.c).
				Str("username", c.u).
				Str("new", new.Version.String()).
				Msg("not sending message since there wasn't a previous release (i.e. mcverd just started)")
			continue
		}
		if err := t.t.SendMessage(c.c, msg); err != nil {
			t.log.Error().
				Str("what", "telegram").
				Str("chat", c.c).
				Err(err).
				Msg("failed to send message")
			c.e.Inc()
		} else {
			t.log.Info().
				Str("what", "telegram").
				Str("chat", c.c).
				Str("username", c.u).
				Str("old", old.Version.String()).
				Str("new", new.Version.String()).
				Msg("sent message")
			c.s.Inc()
		}
	}
}

// message announces the release in both naming schemes, where possible.
func (t *TelegramNotifier) message(r Release) string {
	name := r.Version.String()
	alt := t.s.ToClassic(r.Version)
	if r.Version.Classic {
		if d, err := t.s.ToDrop(r.Version); err == nil {
			alt = d
		}
	}

	msg := `Minecraft <b>` + html.EscapeString(name) + `</b>`
	if alt != name {
		msg += ` (` + html.EscapeString(alt) + `)`
	}
	msg += ` has been released!`
	if r.URL != "" {
		msg += "\n" + `<a href="` + html.EscapeString(r.URL) + `">More information.</a>`
	}
	return msg
}

func (t *TelegramNotifier) WritePrometheus(w io.Writer) {
	t.m.WritePrometheus(w)
}
