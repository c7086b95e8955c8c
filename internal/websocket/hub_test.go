package websocket_test

import (
	"encoding/json"
	"testing"
	"time"

	ws "github.com/candrle20/researchtools/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testWait = time.Second
	testTick = 5 * time.Millisecond
)

// TestHub_RegisterUnregister 测试客户端注册与注销
func TestHub_RegisterUnregister(t *testing.T) {
	hub := ws.NewHub()
	go hub.Run()

	client := ws.NewClient("c1", "user-1", false, hub, nil)
	hub.Register <- client

	require.Eventually(t, func() bool { return hub.GetClientCount() == 1 }, testWait, testTick)

	hub.Unregister <- client
	require.Eventually(t, func() bool { return hub.GetClientCount() == 0 }, testWait, testTick)

	// 注销时关闭发送通道
	_, open := <-client.Send
	assert.False(t, open)
}

// TestHub_NotifySubmissionAdminsOnly 测试新提交事件只推送给管理员
func TestHub_NotifySubmissionAdminsOnly(t *testing.T) {
	hub := ws.NewHub()
	go hub.Run()

	admin := ws.NewClient("a1", "admin-1", true, hub, nil)
	researcher := ws.NewClient("r1", "user-1", false, hub, nil)
	hub.Register <- admin
	hub.Register <- researcher
	require.Eventually(t, func() bool { return hub.GetClientCount() == 2 }, testWait, testTick)

	hub.NotifySubmission("proto-1", "NEURO-2026-0001", "Zebrafish regeneration", "user-1")

	// 管理员收到事件
	var payload []byte
	select {
	case payload = <-admin.Send:
	default:
		t.Fatal("admin client did not receive the submission event")
	}

	var event ws.Event
	require.NoError(t, json.Unmarshal(payload, &event))
	assert.Equal(t, "protocol.submitted", event.Type)

	data, ok := event.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "proto-1", data["protocol_id"])
	assert.Equal(t, "NEURO-2026-0001", data["protocol_number"])

	// 研究员客户端收不到
	select {
	case <-researcher.Send:
		t.Fatal("researcher client should not receive the submission event")
	default:
	}
}

// TestHub_BroadcastToUser 测试定向推送
func TestHub_BroadcastToUser(t *testing.T) {
	hub := ws.NewHub()
	go hub.Run()

	alice := ws.NewClient("c1", "alice", false, hub, nil)
	bob := ws.NewClient("c2", "bob", false, hub, nil)
	hub.Register <- alice
	hub.Register <- bob
	require.Eventually(t, func() bool { return hub.GetClientCount() == 2 }, testWait, testTick)

	hub.BroadcastToUser("alice", []byte("hello"))

	select {
	case msg := <-alice.Send:
		assert.Equal(t, "hello", string(msg))
	default:
		t.Fatal("alice did not receive the message")
	}

	select {
	case <-bob.Send:
		t.Fatal("bob should not receive the message")
	default:
	}
}
