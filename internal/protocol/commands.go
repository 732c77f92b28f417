package protocol

import (
	"strconv"
	"strings"
	"time"
)

// Command verbs
const (
	VerbNop             = "NOP"
	VerbIdentify        = "IDENTIFY"
	VerbAuth            = "AUTH"
	VerbSubscribe       = "SUB"
	VerbReady           = "RDY"
	VerbFinish          = "FIN"
	VerbRequeue         = "REQ"
	VerbTouch           = "TOUCH"
	VerbClose           = "CLS"
	VerbPublish         = "PUB"
	VerbMultiPublish    = "MPUB"
	VerbDeferredPublish = "DPUB"
)

func line(tokens ...string) string {
	return strings.Join(tokens, " ")
}

// Nop builds the no-op command, the required answer to a heartbeat
func Nop() Command {
	return Command{Line: VerbNop}
}

// Identify builds the IDENTIFY command. doc is the client's JSON feature
// document and is sent unmodified.
func Identify(doc []byte) CommandWithPayload {
	return CommandWithPayload{Line: VerbIdentify, Payload: doc}
}

// Auth builds the AUTH command carrying the shared secret
func Auth(secret []byte) CommandWithPayload {
	return CommandWithPayload{Line: VerbAuth, Payload: secret}
}

// Subscribe builds SUB <topic> <channel>
func Subscribe(topic, channel string) Command {
	return Command{Line: line(VerbSubscribe, topic, channel)}
}

// Ready builds RDY <count>, the number of in-flight messages the client
// will accept
func Ready(count int) (Command, error) {
	if count < 0 {
		return Command{}, newError(KindInvalidCommand, "ready count must not be negative, got %d", count)
	}
	return Command{Line: line(VerbReady, strconv.Itoa(count))}, nil
}

// Finish builds FIN <id>
func Finish(id MessageID) (Command, error) {
	if !id.Valid() {
		return Command{}, invalidID(VerbFinish, id)
	}
	return Command{Line: line(VerbFinish, id.String())}, nil
}

// Requeue builds REQ <id> <timeout_ms>. The timeout is truncated to whole
// milliseconds.
func Requeue(id MessageID, timeout time.Duration) (Command, error) {
	if !id.Valid() {
		return Command{}, invalidID(VerbRequeue, id)
	}
	ms, err := millis(VerbRequeue, timeout)
	if err != nil {
		return Command{}, err
	}
	return Command{Line: line(VerbRequeue, id.String(), ms)}, nil
}

// Touch builds TOUCH <id>, resetting the message's server-side timeout
func Touch(id MessageID) (Command, error) {
	if !id.Valid() {
		return Command{}, invalidID(VerbTouch, id)
	}
	return Command{Line: line(VerbTouch, id.String())}, nil
}

// Close builds CLS, asking the server to stop delivering
func Close() Command {
	return Command{Line: VerbClose}
}

// Publish builds PUB <topic> with a single body
func Publish(topic string, body []byte) CommandWithPayload {
	return CommandWithPayload{Line: line(VerbPublish, topic), Payload: body}
}

// MultiPublish builds MPUB <topic> with bodies in the given order
func MultiPublish(topic string, bodies [][]byte) (CommandWithPayloads, error) {
	if len(bodies) == 0 {
		return CommandWithPayloads{}, newError(KindInvalidCommand, "%s requires at least one body", VerbMultiPublish)
	}
	return CommandWithPayloads{Line: line(VerbMultiPublish, topic), Payloads: bodies}, nil
}

// DeferredPublish builds DPUB <topic> <defer_ms> with a single body
func DeferredPublish(topic string, deferTime time.Duration, body []byte) (CommandWithPayload, error) {
	ms, err := millis(VerbDeferredPublish, deferTime)
	if err != nil {
		return CommandWithPayload{}, err
	}
	return CommandWithPayload{Line: line(VerbDeferredPublish, topic, ms), Payload: body}, nil
}

func millis(verb string, d time.Duration) (string, error) {
	if d < 0 {
		return "", newError(KindInvalidCommand, "%s duration must not be negative, got %s", verb, d)
	}
	return strconv.FormatInt(d.Milliseconds(), 10), nil
}

func invalidID(verb string, id MessageID) error {
	return newError(KindInvalidCommand, "%s: message id %q is not 16 printable ASCII bytes", verb, id[:])
}
