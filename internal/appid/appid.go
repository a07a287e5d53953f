// Package appid resolves the nemy app identity: an explicit
// FULMEN_APP_IDENTITY_PATH or a discovered .fulmen/app.yaml wins, then the
// copy embedded in the binary, then Default.
package appid

import (
	"context"

	"github.com/fulmenhq/gofulmen/appidentity"

	appidentityassets "github.com/nemy/nemy/internal/assets/appidentity"
)

const (
	binaryName = "nemy"
	envPrefix  = "NEMY_"
)

func init() {
	_ = appidentity.RegisterEmbeddedIdentityYAML(appidentityassets.YAML)
}

// Get loads the identity through gofulmen discovery.
func Get(ctx context.Context) (*appidentity.Identity, error) {
	return appidentity.Get(ctx)
}

// Default is the identity used when nothing can be loaded.
func Default() *appidentity.Identity {
	return &appidentity.Identity{
		Vendor:      binaryName,
		BinaryName:  binaryName,
		EnvPrefix:   envPrefix,
		ConfigName:  binaryName,
		Description: "Rate-limited client for the Nemy NEM summary API",
	}
}

// Resolve returns the loaded identity, or Default when loading fails.
// Blank fields of a loaded identity are filled from Default.
func Resolve(ctx context.Context) (*appidentity.Identity, error) {
	identity, err := Get(ctx)
	if err != nil || identity == nil {
		return Default(), err
	}

	fallback := Default()
	resolved := *identity
	if resolved.BinaryName == "" {
		resolved.BinaryName = fallback.BinaryName
	}
	if resolved.EnvPrefix == "" {
		resolved.EnvPrefix = fallback.EnvPrefix
	}
	if resolved.ConfigName == "" {
		resolved.ConfigName = fallback.ConfigName
	}
	if resolved.Vendor == "" {
		resolved.Vendor = fallback.Vendor
	}
	return &resolved, nil
}
