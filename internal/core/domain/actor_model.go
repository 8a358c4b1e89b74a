package domain

import (
	"github.com/asynkron/protoactor-go/actor"
)

const (
	ACTOR_ID_MASTER    = "master"
	ACTOR_ID_MQTT      = "mqtt"
	ACTOR_ID_TELEMETRY = "telemetry"
	ACTOR_ID_JANITOR   = "janitor"
)

type ActorRef actor.PID

type ActorRequestMixIn struct {
	ReplyToRef *ActorRef
}

type ActorRequest interface {
	ReplyTo() *ActorRef
}

func (r ActorRequestMixIn) ReplyTo() *ActorRef {
	return r.ReplyToRef
}

type ActorResponseMixIn struct {
	ResponseError error
}

func (r ActorResponseMixIn) GetResponseError() error {
	return r.ResponseError
}

func (r ActorResponseMixIn) HasResponseError() bool {
	return r.ResponseError != nil
}

type ActorResponse interface {
	GetResponseError() error
	HasResponseError() bool
}

// TelemetryMessage is a raw inbound mqtt publish.
type TelemetryMessage struct {
	Topic   string
	Payload []byte
}

type PublishMessageRequest struct {
	ActorRequestMixIn
	Topic   string
	Payload string
	Retain  bool
}

type PublishMessageResponse struct {
	ActorResponseMixIn
}

// SweepRequest asks the janitor to run one eviction pass right away.
type SweepRequest struct {
	ActorRequestMixIn
}

type SweepResponse struct {
	ActorResponseMixIn
	Probed []TasmotaId
}

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}
