package websocket

import (
	"context"
	"fmt"
)

func (that *Server) handleState(_ context.Context, client *Client, msg *Message) error {
	that.send(client, msg.Action, that.presenter.View())

	return nil
}

func (that *Server) handleStart(ctx context.Context, _ *Client, _ *Message) error {
	return that.presenter.Start(ctx)
}

func (that *Server) handlePause(_ context.Context, _ *Client, _ *Message) error {
	that.presenter.Pause()

	return nil
}

func (that *Server) handleDraw(ctx context.Context, client *Client, msg *Message) error {
	number, err := that.presenter.Draw(ctx)
	if err != nil {
		return fmt.Errorf("failed to draw: %w", err)
	}

	that.send(client, msg.Action, DrawPayload{Number: number})

	return nil
}

func (that *Server) handleSpeed(_ context.Context, _ *Client, msg *Message) error {
	var payload SpeedPayload
	if err := decodePayload(msg, &payload); err != nil {
		return err
	}

	return that.presenter.SetSpeed(payload.Speed)
}

func (that *Server) handleRestart(ctx context.Context, _ *Client, msg *Message) error {
	var payload RestartPayload
	if err := decodePayload(msg, &payload); err != nil {
		return err
	}

	return that.presenter.Restart(ctx, payload.Confirmed)
}
