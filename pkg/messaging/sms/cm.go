package sms

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

var ErrGateway = errors.New("sms gateway returned error")

type SMSTo struct {
	Number string `json:"number"`
}

type SMSBody struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type SingleSMS struct {
	AllowedChannels []string `json:"allowedChannels"`
	From            string   `json:"from"`
	To              []SMSTo  `json:"to"`
	Body            SMSBody  `json:"body"`
}

type SMSAuth struct {
	Producttoken string `json:"producttoken"`
}

type SMSMessages struct {
	Authentication SMSAuth     `json:"authentication"`
	Msg            []SingleSMS `json:"msg"`
}

type SMSSendingReq struct {
	Messages SMSMessages `json:"messages"`
}

type smsGatewayResponse struct {
	ErrorCode *int   `json:"errorCode"`
	Details   string `json:"details"`
}

func (s *Sender) send(to string, message string) error {
	payload := SMSSendingReq{
		Messages: SMSMessages{
			Authentication: SMSAuth{
				Producttoken: s.config.APIKey,
			},
			Msg: []SingleSMS{
				{
					AllowedChannels: []string{"SMS"},
					From:            s.config.From,
					To:              []SMSTo{{Number: to}},
					Body: SMSBody{
						Type:    "auto",
						Content: message,
					},
				},
			},
		},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := s.httpClient.Post(s.config.URL, "application/json", bytes.NewReader(jsonData))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Error("sms gateway returned error", slog.String("status", resp.Status))
		return fmt.Errorf("%w: %s", ErrGateway, resp.Status)
	}

	var res smsGatewayResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		slog.Error("Error decoding response", slog.String("error", err.Error()))
		return err
	}
	if res.ErrorCode == nil {
		slog.Error("no error code in response")
		return errors.New("no error code in response")
	}
	if *res.ErrorCode != 0 {
		slog.Error("sms gateway returned error", slog.Int("errorCode", *res.ErrorCode), slog.String("details", res.Details))
		return fmt.Errorf("%w: code %d", ErrGateway, *res.ErrorCode)
	}
	return nil
}
