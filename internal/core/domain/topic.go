package domain

// Topic is the classification of an inbound mqtt topic.
// The set of implementations is closed.
type Topic interface {
	isTopic()
}

type LwtTopic struct{ Device TasmotaId }
type PowerTopic struct{ Device TasmotaId }
type StateTopic struct{ Device TasmotaId }
type SensorTopic struct{ Device TasmotaId }
type ResultTopic struct{ Device TasmotaId }
type StatusTopic struct{ Device TasmotaId }

// RfMessageTopic carries the raw prefix before "/msg", the sensor identity
// is only known after decoding the payload.
type RfMessageTopic struct{ Prefix string }

type RtlTopic struct {
	Device string
	Field  string
}

type DsmrTopic struct {
	Device DsmrId
	Field  DsmrField
}

type OtherTopic struct{ Raw string }

func (LwtTopic) isTopic()       {}
func (PowerTopic) isTopic()     {}
func (StateTopic) isTopic()     {}
func (SensorTopic) isTopic()    {}
func (ResultTopic) isTopic()    {}
func (StatusTopic) isTopic()    {}
func (RfMessageTopic) isTopic() {}
func (RtlTopic) isTopic()       {}
func (DsmrTopic) isTopic()      {}
func (OtherTopic) isTopic()     {}
