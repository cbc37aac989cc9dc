package nimbus

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/dmitrijs2005/daybook/internal/backend"
)

const heartbeatInterval = 30 * time.Second

// realtimeMessage is the phoenix-channel envelope the realtime endpoint
// speaks. Row changes arrive as INSERT/UPDATE events whose payload carries
// the new row.
type realtimeMessage struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     string          `json:"ref"`
}

type changePayload struct {
	Record snapshotRow `json:"record"`
}

// Watch subscribes to changes of the user's snapshot row and calls onChange
// with the remote modification time of each change. It blocks until ctx is
// cancelled or the connection drops.
func (b *Backend) Watch(ctx context.Context, onChange func(remoteTime time.Time)) error {
	_, userID, err := b.creds()
	if err != nil {
		return err
	}

	conn, _, err := websocket.Dial(ctx, b.websocketURL(), nil)
	if err != nil {
		return &backend.ConnectionError{Backend: b.Name(), Err: err}
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	topic := fmt.Sprintf("realtime:public:%s:user_id=eq.%s", snapshotsTable, userID)
	join := realtimeMessage{Topic: topic, Event: "phx_join", Payload: json.RawMessage(`{}`), Ref: "1"}
	if err := wsjson.Write(ctx, conn, join); err != nil {
		return &backend.ConnectionError{Backend: b.Name(), Err: err}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go b.heartbeat(ctx, conn)

	for {
		var msg realtimeMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &backend.ConnectionError{Backend: b.Name(), Err: err}
		}

		switch msg.Event {
		case "INSERT", "UPDATE":
			var payload changePayload
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				continue
			}
			t, err := parsePgTime(payload.Record.UpdatedAt)
			if err != nil {
				continue
			}
			onChange(t)
		}
	}
}

// heartbeat keeps the phoenix connection alive until ctx is cancelled.
func (b *Backend) heartbeat(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	ref := 2
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			msg := realtimeMessage{
				Topic:   "phoenix",
				Event:   "heartbeat",
				Payload: json.RawMessage(`{}`),
				Ref:     strconv.Itoa(ref),
			}
			if err := wsjson.Write(ctx, conn, msg); err != nil {
				return
			}
			ref++
		}
	}
}
