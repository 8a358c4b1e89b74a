package config

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/berfenger/taspromto/internal/core/domain"

	"go.uber.org/zap/zapcore"
)

var ErrInvalidNames = errors.New("invalid name table")

type Config struct {
	LogLevel    zapcore.Level
	MQTT        MQTTConfig  `mapstructure:"mqtt"`
	Sweep       SweepConfig `mapstructure:"sweep"`
	Port        uint        `mapstructure:"port"`
	HttpLog     bool        `mapstructure:"http_log"`
	MiTempNames string      `mapstructure:"mitemp_names"`
	RfTempNames string      `mapstructure:"rf_temp_names"`
}

type MQTTConfig struct {
	Host             string
	Port             int
	Username         string
	Password         string
	ClientId         string `mapstructure:"client_id"`
	KeepAliveSeconds uint   `mapstructure:"keep_alive_seconds"`
	RfMessageTopic   string `mapstructure:"rf_message_topic"`
}

type SweepConfig struct {
	IntervalSeconds    uint `mapstructure:"interval_seconds"`
	PingAfterSeconds   uint `mapstructure:"ping_after_seconds"`
	RemoveAfterSeconds uint `mapstructure:"remove_after_seconds"`
}

func (c SweepConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

func (c SweepConfig) PingAfter() time.Duration {
	return time.Duration(c.PingAfterSeconds) * time.Second
}

func (c SweepConfig) RemoveAfter() time.Duration {
	return time.Duration(c.RemoveAfterSeconds) * time.Second
}

var rfMessageTopicRegexp = regexp.MustCompile(`^[a-zA-Z0-9_\-]+(/[a-zA-Z0-9_\-]+)*/msg$`)

// CheckRfMessageTopic validates the rflink topic. It must be a concrete topic
// (no wildcards) ending in /msg, otherwise inbound messages would not be
// recognized as rf messages.
func CheckRfMessageTopic(topic string) (string, error) {
	topic = strings.TrimSpace(topic)
	if !rfMessageTopicRegexp.MatchString(topic) {
		return "", fmt.Errorf("invalid rf message topic %q. must end in /msg and can only contain letters, numbers, dashes and underscores", topic)
	}
	return topic, nil
}

// ParseBleNames parses "391D5B=Living Room,582D34=Kitchen" into a name table.
// Keys are the last 6 hex digits of a MiTemp mac.
func ParseBleNames(raw string) (domain.BleNames, error) {
	names := domain.BleNames{}
	for _, pair := range splitPairs(raw) {
		key, name, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidNames, pair)
		}
		addr, err := domain.ParseMiTempMac(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidNames, err)
		}
		names[addr] = name
	}
	return names, nil
}

// ParseRfNames parses "<model>:<id>:<channel>=<name>,..." into a name table.
func ParseRfNames(raw string) (domain.RfNames, error) {
	names := domain.RfNames{}
	for _, pair := range splitPairs(raw) {
		key, name, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidNames, pair)
		}
		parts := strings.Split(strings.TrimSpace(key), ":")
		if len(parts) != 3 || parts[0] == "" {
			return nil, fmt.Errorf("%w: %q is not <model>:<id>:<channel>", ErrInvalidNames, key)
		}
		id, err := strconv.ParseUint(parts[1], 10, 16)
		if err != nil {
			return nil, fmt.Errorf("%w: id in %q: %w", ErrInvalidNames, key, err)
		}
		channel, err := strconv.ParseUint(parts[2], 10, 8)
		if err != nil {
			return nil, fmt.Errorf("%w: channel in %q: %w", ErrInvalidNames, key, err)
		}
		names[domain.RfId{Name: parts[0], Id: uint16(id), Channel: uint8(channel)}] = name
	}
	return names, nil
}

func splitPairs(raw string) []string {
	var pairs []string
	for _, pair := range strings.Split(raw, ",") {
		if strings.TrimSpace(pair) != "" {
			pairs = append(pairs, pair)
		}
	}
	return pairs
}
