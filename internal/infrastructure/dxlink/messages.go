package dxlink

import (
	"bytes"
	"encoding/json"
	"errors"
)

const (
	msgSetup            = "SETUP"
	msgAuth             = "AUTH"
	msgAuthState        = "AUTH_STATE"
	msgKeepalive        = "KEEPALIVE"
	msgChannelRequest   = "CHANNEL_REQUEST"
	msgChannelOpened    = "CHANNEL_OPENED"
	msgChannelClosed    = "CHANNEL_CLOSED"
	msgFeedConfig       = "FEED_CONFIG"
	msgFeedSubscription = "FEED_SUBSCRIPTION"
	msgFeedData         = "FEED_DATA"
	msgError            = "ERROR"
)

const (
	protocolVersion     = "0.1"
	keepaliveTimeoutSec = 60

	controlChannel = 0
	feedChannel    = 1

	feedService     = "FEED"
	contractAuto    = "AUTO"
	stateAuthorized = "AUTHORIZED"
)

// ========== Outbound ==========

type setupMsg struct {
	Type                   string `json:"type"`
	Channel                int    `json:"channel"`
	Version                string `json:"version"`
	KeepaliveTimeout       int    `json:"keepaliveTimeout"`
	AcceptKeepaliveTimeout int    `json:"acceptKeepaliveTimeout"`
}

type authMsg struct {
	Type    string `json:"type"`
	Channel int    `json:"channel"`
	Token   string `json:"token"`
}

type keepaliveMsg struct {
	Type    string `json:"type"`
	Channel int    `json:"channel"`
}

type channelParameters struct {
	Contract string `json:"contract"`
}

type channelRequestMsg struct {
	Type       string            `json:"type"`
	Channel    int               `json:"channel"`
	Service    string            `json:"service"`
	Parameters channelParameters `json:"parameters"`
}

type feedSubscriptionItem struct {
	Symbol string `json:"symbol"`
	Type   string `json:"type"`
}

type feedSubscriptionMsg struct {
	Type    string                 `json:"type"`
	Channel int                    `json:"channel"`
	Add     []feedSubscriptionItem `json:"add"`
}

func newSetupMsg() setupMsg {
	return setupMsg{
		Type:                   msgSetup,
		Channel:                controlChannel,
		Version:                protocolVersion,
		KeepaliveTimeout:       keepaliveTimeoutSec,
		AcceptKeepaliveTimeout: keepaliveTimeoutSec,
	}
}

func newAuthMsg(token string) authMsg {
	return authMsg{Type: msgAuth, Channel: controlChannel, Token: token}
}

func newKeepaliveMsg() keepaliveMsg {
	return keepaliveMsg{Type: msgKeepalive, Channel: controlChannel}
}

func newChannelRequestMsg() channelRequestMsg {
	return channelRequestMsg{
		Type:       msgChannelRequest,
		Channel:    feedChannel,
		Service:    feedService,
		Parameters: channelParameters{Contract: contractAuto},
	}
}

// ========== Inbound ==========

type inboundMsg struct {
	Type             string          `json:"type"`
	Channel          int             `json:"channel"`
	KeepaliveTimeout float64         `json:"keepaliveTimeout"`
	State            string          `json:"state"`
	Error            string          `json:"error"`
	Message          string          `json:"message"`
	Data             json.RawMessage `json:"data"`
}

// splitFeedData splits a FEED_DATA payload into its elements so each event
// decodes on its own.
func splitFeedData(raw json.RawMessage) ([]json.RawMessage, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, err
	}
	return elems, nil
}

// decodeFeedEvent parses one FEED_DATA element keeping numbers as
// json.Number so epoch milliseconds and sequences survive without float
// rounding.
func decodeFeedEvent(raw json.RawMessage) (fields, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var ev fields
	if err := dec.Decode(&ev); err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, errors.New("feed event is null")
	}
	return ev, nil
}
