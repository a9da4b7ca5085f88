package queue

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// PushRequest is the body of a push delivery.
type PushRequest struct {
	Message struct {
		Data        string            `json:"data"`
		MessageID   string            `json:"messageId"`
		OrderingKey string            `json:"orderingKey"`
		Attributes  map[string]string `json:"attributes"`
		PublishTime string            `json:"publishTime"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// ErrBadPush marks a push body that cannot be decoded.
var ErrBadPush = errors.New("invalid push message")

// DecodePush decodes a push delivery and its base64 envelope.
func DecodePush(body []byte) (Delivery, error) {
	var req PushRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return Delivery{}, fmt.Errorf("%w: %v", ErrBadPush, err)
	}
	if req.Message.Data == "" {
		return Delivery{}, fmt.Errorf("%w: message.data is empty", ErrBadPush)
	}

	data, err := base64.StdEncoding.DecodeString(req.Message.Data)
	if err != nil {
		return Delivery{}, fmt.Errorf("%w: %v", ErrBadPush, err)
	}
	env, err := decode(data)
	if err != nil {
		return Delivery{}, fmt.Errorf("%w: %v", ErrBadPush, err)
	}

	return Delivery{ID: req.Message.MessageID, OrderingKey: req.Message.OrderingKey, Envelope: env}, nil
}
