package wampnet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunaoezer/Intercom/directory"
	"github.com/tunaoezer/Intercom/uri"
)

type fakeRelayPublisher struct {
	sessionId   string
	published   []*uri.Uri
	publishedTo map[string]interface{}
}

func (p *fakeRelayPublisher) GetSessionId() string { return p.sessionId }

func (p *fakeRelayPublisher) PublishUri(target *uri.Uri, data interface{}, _ ...PublishOption) error {
	p.published = append(p.published, target)
	if p.publishedTo == nil {
		p.publishedTo = make(map[string]interface{})
	}
	p.publishedTo[target.String()] = data
	return nil
}

func mustParse(t *testing.T, raw string) *uri.Uri {
	t.Helper()
	u, err := uri.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestRelayHandler_Handle_ForwardsSingleArgumentPublish(t *testing.T) {
	pub := &fakeRelayPublisher{sessionId: "s1"}
	relayUri := mustParse(t, "wamp://host/relay/target")
	h := NewRelayHandler("relay", pub, relayUri)

	req := directory.NewRequestWithType(mustParse(t, "/topic"), directory.RequestPublish, "hello")
	h.Handle(req)

	require.Len(t, pub.published, 1)
	assert.Equal(t, "wamp://host/relay/target", pub.published[0].String())
	assert.Equal(t, "hello", pub.publishedTo["wamp://host/relay/target"])
}

func TestRelayHandler_Handle_IgnoresCallRequests(t *testing.T) {
	pub := &fakeRelayPublisher{sessionId: "s1"}
	h := NewRelayHandler("relay", pub, mustParse(t, "wamp://host/relay/target"))

	req := directory.NewRequestWithType(mustParse(t, "/topic"), directory.RequestCall, "hello")
	h.Handle(req)

	assert.Empty(t, pub.published)
}

func TestRelayHandler_Handle_IgnoresMultiArgumentPublish(t *testing.T) {
	pub := &fakeRelayPublisher{sessionId: "s1"}
	h := NewRelayHandler("relay", pub, mustParse(t, "wamp://host/relay/target"))

	req := directory.NewRequestWithType(mustParse(t, "/topic"), directory.RequestPublish, "a", "b")
	h.Handle(req)

	assert.Empty(t, pub.published)
}

func TestRelayHandler_Handle_EligibleFiltersOutNonMatchingSession(t *testing.T) {
	pub := &fakeRelayPublisher{sessionId: "s1"}
	h := NewRelayHandler("relay", pub, mustParse(t, "wamp://host/relay/target"))

	topic := mustParse(t, "/topic")
	topic.SetParameter("eligible", "s2,s3")
	req := directory.NewRequestWithType(topic, directory.RequestPublish, "hello")
	h.Handle(req)

	assert.Empty(t, pub.published)
}

func TestRelayHandler_Handle_EligibleAllowsMatchingSession(t *testing.T) {
	pub := &fakeRelayPublisher{sessionId: "s2"}
	h := NewRelayHandler("relay", pub, mustParse(t, "wamp://host/relay/target"))

	topic := mustParse(t, "/topic")
	topic.SetParameter("eligible", "s2,s3")
	req := directory.NewRequestWithType(topic, directory.RequestPublish, "hello")
	h.Handle(req)

	assert.Len(t, pub.published, 1)
}

func TestRelayHandler_Handle_ExcludeFiltersOutMatchingSession(t *testing.T) {
	pub := &fakeRelayPublisher{sessionId: "s1"}
	h := NewRelayHandler("relay", pub, mustParse(t, "wamp://host/relay/target"))

	topic := mustParse(t, "/topic")
	topic.SetParameter("exclude", "s1")
	req := directory.NewRequestWithType(topic, directory.RequestPublish, "hello")
	h.Handle(req)

	assert.Empty(t, pub.published)
}

func TestRelayHandler_CatchAll_AppendsPathRemainderToRelayUri(t *testing.T) {
	pub := &fakeRelayPublisher{sessionId: "s1"}
	relayUri := mustParse(t, "wamp://host/relay/rooms/*")
	h := NewRelayHandler("relay", pub, relayUri)
	require.True(t, h.IsCatchAll())

	req := directory.NewRequestWithType(mustParse(t, "/rooms/lobby"), directory.RequestPublish, "hello")
	h.HandleCatchAll("lobby", req)

	require.Len(t, pub.published, 1)
	assert.Equal(t, "wamp://host/relay/rooms/lobby", pub.published[0].String())
}

func TestNewRelayHandler_NonCatchAllKeepsExactPath(t *testing.T) {
	pub := &fakeRelayPublisher{sessionId: "s1"}
	h := NewRelayHandler("relay", pub, mustParse(t, "wamp://host/relay/target"))
	assert.False(t, h.IsCatchAll())
}

func TestSessionMatches(t *testing.T) {
	assert.True(t, sessionMatches("s1", "s1"))
	assert.True(t, sessionMatches("s1,s2,s3", "s2"))
	assert.False(t, sessionMatches("s1,s2,s3", "s4"))
	assert.False(t, sessionMatches("", "s1"))
}
