package notifier

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/aleister1102/pagewatch/internal/config"
	"github.com/aleister1102/pagewatch/internal/models"
	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"
)

// SendFunc delivers a composed message.
type SendFunc func(ctx context.Context, msg *mail.Msg) error

// EmailNotifier sends the change list by SMTP.
type EmailNotifier struct {
	cfg     config.EmailConfig
	timeout time.Duration
	send    SendFunc
	now     func() time.Time
	logger  zerolog.Logger
}

// NewEmailNotifier creates an EmailNotifier from notification_config.email.
// timeout bounds the whole SMTP exchange.
func NewEmailNotifier(cfg config.EmailConfig, timeout time.Duration, logger zerolog.Logger) *EmailNotifier {
	if timeout <= 0 {
		timeout = time.Duration(config.DefaultNotifierTimeout) * time.Second
	}
	en := &EmailNotifier{
		cfg:     cfg,
		timeout: timeout,
		now:     time.Now,
		logger:  logger.With().Str("component", "EmailNotifier").Logger(),
	}
	en.send = en.dialAndSend
	return en
}

// WithSender replaces the SMTP transport.
func (en *EmailNotifier) WithSender(fn SendFunc) *EmailNotifier {
	en.send = fn
	return en
}

// Notify implements Notifier.
func (en *EmailNotifier) Notify(ctx context.Context, result *models.RunResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(en.cfg.Recipients) == 0 {
		return fmt.Errorf("email notifier has no recipients")
	}

	msg, err := en.buildMessage(result)
	if err != nil {
		return fmt.Errorf("failed to compose email: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, en.timeout)
	defer cancel()
	if err := en.send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email via %s: %w", en.addr(), err)
	}

	en.logger.Info().Int("recipients", len(en.cfg.Recipients)).Str("run_id", result.RunID).Msg("Email notification sent")
	return nil
}

func (en *EmailNotifier) port() int {
	if en.cfg.SMTPPort == 0 {
		return config.DefaultSMTPPort
	}
	return en.cfg.SMTPPort
}

func (en *EmailNotifier) addr() string {
	return net.JoinHostPort(en.cfg.SMTPHost, strconv.Itoa(en.port()))
}

func (en *EmailNotifier) dialAndSend(ctx context.Context, msg *mail.Msg) error {
	opts := []mail.Option{
		mail.WithPort(en.port()),
		mail.WithTimeout(en.timeout),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithDialContextFunc(en.dial),
	}
	if en.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(en.cfg.Username),
			mail.WithPassword(en.cfg.Password),
		)
	}

	client, err := mail.NewClient(en.cfg.SMTPHost, opts...)
	if err != nil {
		return err
	}
	return client.DialAndSendWithContext(ctx, msg)
}

// dial puts a deadline on the connection so a server that accepts but never
// answers cannot hold the run past the notifier timeout.
func (en *EmailNotifier) dial(ctx context.Context, network, address string) (net.Conn, error) {
	d := net.Dialer{Timeout: en.timeout}
	conn, err := d.DialContext(ctx, network, address)
	if err != nil {
		return nil, err
	}
	deadline := time.Now().Add(en.timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	if err := conn.SetDeadline(deadline); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

func (en *EmailNotifier) buildMessage(result *models.RunResult) (*mail.Msg, error) {
	subject := en.cfg.SubjectPrefix
	if subject == "" {
		subject = config.DefaultEmailSubject
	}
	if n := len(result.Filter(models.StatusChanged)); n > 0 {
		subject = fmt.Sprintf("%s (%d)", subject, n)
	}

	msg := mail.NewMsg(mail.WithEncoding(mail.NoEncoding))
	if err := msg.FromFormat(en.cfg.SenderName, en.cfg.SenderEmail); err != nil {
		return nil, fmt.Errorf("invalid sender: %w", err)
	}
	if err := msg.To(en.cfg.Recipients...); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetDateWithValue(en.now())
	msg.SetBodyString(mail.TypeTextPlain, strings.ReplaceAll(plainTextBody(result), "\n", "\r\n"))
	return msg, nil
}
