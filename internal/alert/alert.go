// Package alert delivers operational notifications by email. Sends are
// throttled by their own rolling limiter so a failing faucet cannot flood
// the channel.
package alert

import (
	"fmt"

	"github.com/labstack/gommon/log"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"member-faucet/internal/metrics"
	"member-faucet/internal/model"
	"member-faucet/internal/ratelimit"
)

const subject = "Member Faucet Alert"

const throttleKey = "alerts"

type sendFunc func(message *mail.SGMailV3) error

type Channel struct {
	from    string
	to      string
	limiter *ratelimit.Limiter
	send    sendFunc
}

func New(apiKey, from, to string, limiter *ratelimit.Limiter) *Channel {
	channel := &Channel{from: from, to: to, limiter: limiter}
	if apiKey != "" && from != "" && to != "" {
		client := sendgrid.NewSendClient(apiKey)
		channel.send = func(message *mail.SGMailV3) error {
			response, err := client.Send(message)
			if err != nil {
				return err
			}
			if response.StatusCode >= 300 {
				return fmt.Errorf("sendgrid responded %d: %s", response.StatusCode, response.Body)
			}
			return nil
		}
	}
	return channel
}

func (c *Channel) Configured() bool {
	return c.send != nil
}

// Send delivers message asynchronously. Unconfigured or throttled sends
// are logged and dropped; a failed delivery never propagates to the
// request that triggered it.
func (c *Channel) Send(message string) {
	alertID := model.CreateID()

	if !c.Configured() {
		log.Infof("email alerts not configured, dropping alert %s: %s", alertID, message)
		return
	}

	if c.limiter.Limit(throttleKey) {
		log.Warnf("alert throttled, dropping alert %s: %s", alertID, message)
		return
	}

	email := mail.NewSingleEmail(
		mail.NewEmail("", c.from),
		subject,
		mail.NewEmail("", c.to),
		message,
		fmt.Sprintf("<span>%s</span>", message),
	)

	go func() {
		if err := c.send(email); err != nil {
			log.Errorf("sending alert %s: %+v", alertID, err)
			return
		}
		metrics.AlertsSent.Inc()
		log.Infof("sent alert %s", alertID)
	}()
}

// SendTest delivers a fixed test message through the configured transport.
func (c *Channel) SendTest() {
	c.Send("test alert message")
}
