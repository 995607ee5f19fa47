// Package notify entrega los códigos OTP al usuario.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/vkj/geofix-api/pkg/config"
	"github.com/vkj/geofix-api/pkg/logger"
)

// LogNotifier solo registra el código. Para desarrollo y entornos sin SMTP.
type LogNotifier struct {
	log *logger.Logger
}

// NewLogNotifier crea el notificador de log.
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: log.Component("otp-notifier")}
}

// SendOTP escribe el código en el log a nivel warn para que sea visible.
func (n *LogNotifier) SendOTP(_ context.Context, email, code string, expiresAt time.Time) error {
	n.log.Warn().Str("email", email).Str("otp", code).Time("expires_at", expiresAt).Msg("código OTP generado (sin SMTP)")
	return nil
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPNotifier envía el código por correo. smtp.SendMail negocia STARTTLS si el servidor lo ofrece.
type SMTPNotifier struct {
	addr     string
	from     string
	auth     smtp.Auth
	sendMail sendMailFunc
}

// NewSMTPNotifier crea el notificador a partir de la configuración SMTP.
func NewSMTPNotifier(cfg config.SMTPConfig) *SMTPNotifier {
	var auth smtp.Auth
	if cfg.User != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Host)
	}
	return &SMTPNotifier{
		addr:     cfg.Host + ":" + strconv.Itoa(cfg.Port),
		from:     cfg.From,
		auth:     auth,
		sendMail: smtp.SendMail,
	}
}

// SendOTP compone un mensaje de texto plano y lo envía.
func (n *SMTPNotifier) SendOTP(ctx context.Context, email, code string, expiresAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.ContainsAny(email, "\r\n") {
		return fmt.Errorf("destinatario inválido")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", n.from)
	fmt.Fprintf(&b, "To: %s\r\n", email)
	b.WriteString("Subject: GeoFix - código de verificación\r\n")
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n")
	fmt.Fprintf(&b, "Tu código es %s. Vence a las %s UTC.\r\n", code, expiresAt.UTC().Format("15:04"))

	if err := n.sendMail(n.addr, n.auth, n.from, []string{email}, []byte(b.String())); err != nil {
		return fmt.Errorf("send otp mail: %w", err)
	}
	return nil
}
