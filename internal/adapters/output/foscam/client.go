// Package foscam talks to Foscam floodlight cameras through the CGIProxy.fcgi
// command interface.
package foscam

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"floodlight-bridge/internal/domain/model"
	"floodlight-bridge/internal/infrastructure/logging"
)

const (
	cgiPath = "/cgi-bin/CGIProxy.fcgi"

	cmdGetWhiteLightBrightness = "getWhiteLightBrightness"
	cmdSetWhiteLightBrightness = "setWhiteLightBrightness"
	cmdGetHdrMode              = "getHdrMode"
	cmdSetHdrMode              = "setHdrMode"
	cmdGetDevState             = "getDevState"

	maxResponseSize = 64 << 10
)

type Client struct {
	httpClient *http.Client
	logger     *logging.Logger
}

func NewClient(timeout time.Duration, logger *logging.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With("component", "foscam"),
	}
}

// cgiResult covers every child the supported commands answer with. Pointer
// fields stay nil when the element is absent.
type cgiResult struct {
	XMLName       xml.Name `xml:"CGI_Result"`
	Result        *string  `xml:"result"`
	Enable        *string  `xml:"enable"`
	Brightness    *string  `xml:"brightness"`
	LightInterval *string  `xml:"lightinterval"`
	Mode          *string  `xml:"mode"`
	InfraLedState *string  `xml:"infraLedState"`
}

type param struct {
	key   string
	value string
}

func (c *Client) GetWhiteLightBrightness(ctx context.Context, creds model.Credentials) (model.WhiteLight, error) {
	res, err := c.do(ctx, creds, cmdGetWhiteLightBrightness)
	if err != nil {
		return model.WhiteLight{}, err
	}

	enable, err := intField(cmdGetWhiteLightBrightness, "enable", res.Enable)
	if err != nil {
		return model.WhiteLight{}, err
	}
	brightness, err := intField(cmdGetWhiteLightBrightness, "brightness", res.Brightness)
	if err != nil {
		return model.WhiteLight{}, err
	}
	interval, err := intField(cmdGetWhiteLightBrightness, "lightinterval", res.LightInterval)
	if err != nil {
		return model.WhiteLight{}, err
	}

	return model.WhiteLight{
		Enable:        enable == 1,
		Brightness:    brightness,
		LightInterval: interval,
	}, nil
}

func (c *Client) SetWhiteLightBrightness(ctx context.Context, creds model.Credentials, cmd model.WhiteLightCommand) error {
	enable := "0"
	if cmd.Enable {
		enable = "1"
	}
	_, err := c.do(ctx, creds, cmdSetWhiteLightBrightness,
		param{"enable", enable},
		param{"brightness", strconv.Itoa(cmd.Brightness)},
		param{"lightinterval", strconv.Itoa(cmd.LightInterval)},
	)
	return err
}

func (c *Client) GetHdrMode(ctx context.Context, creds model.Credentials) (int, error) {
	res, err := c.do(ctx, creds, cmdGetHdrMode)
	if err != nil {
		return 0, err
	}
	return intField(cmdGetHdrMode, "mode", res.Mode)
}

func (c *Client) SetHdrMode(ctx context.Context, creds model.Credentials, mode int) error {
	_, err := c.do(ctx, creds, cmdSetHdrMode, param{"mode", strconv.Itoa(mode)})
	return err
}

func (c *Client) GetDevState(ctx context.Context, creds model.Credentials) (model.DevState, error) {
	res, err := c.do(ctx, creds, cmdGetDevState)
	if err != nil {
		return model.DevState{}, err
	}
	state, err := intField(cmdGetDevState, "infraLedState", res.InfraLedState)
	if err != nil {
		return model.DevState{}, err
	}
	return model.DevState{InfraLedState: state}, nil
}

// do issues one command and returns the decoded document once its result
// code is 0.
func (c *Client) do(ctx context.Context, creds model.Credentials, cmd string, params ...param) (*cgiResult, error) {
	if !creds.Configured() {
		return nil, model.ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, commandURL(creds, cmd, params), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", model.ErrTransport, cmd, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", model.ErrTransport, cmd, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s: HTTP %d", model.ErrTransport, cmd, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: reading body: %w", model.ErrTransport, cmd, err)
	}
	c.logger.Debug("cgi response", "ip", creds.Address, "cmd", cmd, "body", string(body))

	var res cgiResult
	if err := xml.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", model.ErrMalformedResponse, cmd, err)
	}

	code, err := intField(cmd, "result", res.Result)
	if err != nil {
		return nil, err
	}
	if code != 0 {
		return nil, &model.ResultError{Command: cmd, Code: code}
	}
	return &res, nil
}

// commandURL keeps cmd, usr and pwd first, followed by the command parameters
// in the order given.
func commandURL(creds model.Credentials, cmd string, params []param) string {
	var q strings.Builder
	q.WriteString("cmd=" + url.QueryEscape(cmd))
	q.WriteString("&usr=" + url.QueryEscape(creds.Username))
	q.WriteString("&pwd=" + url.QueryEscape(creds.Password))
	for _, p := range params {
		q.WriteString("&" + p.key + "=" + url.QueryEscape(p.value))
	}
	return "http://" + creds.Address + cgiPath + "?" + q.String()
}

func intField(cmd, name string, v *string) (int, error) {
	if v == nil {
		return 0, fmt.Errorf("%w: %s: missing %s", model.ErrMalformedResponse, cmd, name)
	}
	n, err := strconv.Atoi(strings.TrimSpace(*v))
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %s=%q", model.ErrMalformedResponse, cmd, name, *v)
	}
	return n, nil
}
