package notify

import (
	"bytes"
	"context"
	"errors"
	"net/smtp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkj/geofix-api/pkg/config"
	"github.com/vkj/geofix-api/pkg/logger"
)

func TestSMTPNotifier_ComponeMensaje(t *testing.T) {
	n := NewSMTPNotifier(config.SMTPConfig{Host: "smtp.local", Port: 2525, User: "u", Password: "p", From: "no-reply@geofix.in"})
	var (
		gotAddr string
		gotTo   []string
		gotMsg  []byte
	)
	n.sendMail = func(addr string, _ smtp.Auth, _ string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, msg
		return nil
	}

	err := n.SendOTP(context.Background(), "c@geofix.in", "123456", time.Date(2026, 1, 1, 10, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "smtp.local:2525", gotAddr)
	assert.Equal(t, []string{"c@geofix.in"}, gotTo)
	assert.Contains(t, string(gotMsg), "Tu código es 123456. Vence a las 10:30 UTC.")
}

func TestSMTPNotifier_ErroresDeEnvio(t *testing.T) {
	n := NewSMTPNotifier(config.SMTPConfig{Host: "smtp.local", Port: 25})
	n.sendMail = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("conexión rechazada") }

	assert.Error(t, n.SendOTP(context.Background(), "c@geofix.in", "123456", time.Now()))
	assert.Error(t, n.SendOTP(context.Background(), "c@geofix.in\r\nBcc: x@y", "123456", time.Now()))
}

func TestLogNotifier_RegistraCodigo(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(logger.New(logger.Config{Env: "test", Level: "info", Output: &buf}))
	require.NoError(t, n.SendOTP(context.Background(), "c@geofix.in", "654321", time.Now()))
	assert.Contains(t, buf.String(), "654321")
	assert.Contains(t, buf.String(), "otp-notifier")
}
