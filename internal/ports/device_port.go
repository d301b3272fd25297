package ports

import (
	"context"
	"floodlight-bridge/internal/domain/model"
)

// FloodlightPort issues CGI commands to one physical floodlight.
type FloodlightPort interface {
	GetWhiteLightBrightness(ctx context.Context, creds model.Credentials) (model.WhiteLight, error)
	SetWhiteLightBrightness(ctx context.Context, creds model.Credentials, cmd model.WhiteLightCommand) error
	GetHdrMode(ctx context.Context, creds model.Credentials) (int, error)
	SetHdrMode(ctx context.Context, creds model.Credentials, mode int) error
	GetDevState(ctx context.Context, creds model.Credentials) (model.DevState, error)
}
