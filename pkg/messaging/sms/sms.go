package sms

import (
	"bytes"
	"log/slog"
	"net/http"
	"strconv"
	"text/template"
	"time"
)

const (
	DEFAULT_OTP_TEMPLATE = "Your verification code is {{.Code}}. It expires in {{.Minutes}} minutes."
	DEFAULT_TIMEOUT      = 10 * time.Second
)

type GatewayConfig struct {
	URL         string        `json:"url" yaml:"url"`
	APIKey      string        `json:"api_key" yaml:"api_key"`
	From        string        `json:"from" yaml:"from"`
	OTPTemplate string        `json:"otp_template" yaml:"otp_template"`
	Timeout     time.Duration `json:"timeout" yaml:"timeout"`
}

// Sender delivers text messages through a CM style JSON gateway. Without a gateway URL it runs
// in development mode and only logs the message.
type Sender struct {
	config      GatewayConfig
	httpClient  *http.Client
	otpTemplate *template.Template
}

type otpMessage struct {
	Code    string
	Minutes string
}

func NewSender(config GatewayConfig) (*Sender, error) {
	if config.OTPTemplate == "" {
		config.OTPTemplate = DEFAULT_OTP_TEMPLATE
	}
	if config.Timeout <= 0 {
		config.Timeout = DEFAULT_TIMEOUT
	}
	tmpl, err := template.New("otp").Parse(config.OTPTemplate)
	if err != nil {
		return nil, err
	}
	return &Sender{
		config:      config,
		httpClient:  &http.Client{Timeout: config.Timeout},
		otpTemplate: tmpl,
	}, nil
}

func (s *Sender) IsDevelopmentMode() bool {
	return s.config.URL == ""
}

// SendOTP renders the one-time password message and sends it to phone.
func (s *Sender) SendOTP(phone string, code string, validFor time.Duration) error {
	var content bytes.Buffer
	if err := s.otpTemplate.Execute(&content, otpMessage{
		Code:    code,
		Minutes: strconv.Itoa(int(validFor.Minutes())),
	}); err != nil {
		return err
	}

	if s.IsDevelopmentMode() {
		slog.Debug("sms gateway not configured, message not sent", slog.String("to", phone), slog.String("content", content.String()))
		return nil
	}
	return s.send(phone, content.String())
}
