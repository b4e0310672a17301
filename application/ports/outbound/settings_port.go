package outbound

import (
	"context"

	"github.com/devenspear/devatar/domain"
)

// SettingsPort resolves process-wide settings that point at assets, such as
// the default headshot. A missing setting is (nil, nil), not an error.
type SettingsPort interface {
	ResolveAssetSetting(ctx context.Context, key string) (*domain.Asset, error)
}
