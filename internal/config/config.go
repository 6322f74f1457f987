// Package config reads process environment settings. The admin password
// doubles as the HMAC secret for both the admin session and the draw lock;
// the lock falls back to a fixed string when no password is set yet so the
// draw page works before setup.
package config

import (
	"strings"

	"github.com/caarlos0/env/v11"
)

const drawLockFallbackSecret = "lixi-2026-draw-lock"

type Env struct {
	AdminPassword string `env:"LIXI_ADMIN_PASSWORD"`
	DataDir       string `env:"LIXI_DATA_DIR" envDefault:"./data"`
	EnablePprof   bool   `env:"LIXI_ENABLE_PPROF" envDefault:"false"`
	DeployEnv     string `env:"DEPLOY_ENV"`
}

func Parse() (Env, error) {
	e, err := env.ParseAs[Env]()
	if err != nil {
		return Env{}, err
	}
	e.AdminPassword = strings.TrimSpace(e.AdminPassword)
	return e, nil
}

// Production controls cookie Secure flags.
func (e Env) Production() bool {
	switch strings.ToLower(strings.TrimSpace(e.DeployEnv)) {
	case "staging", "production":
		return true
	default:
		return false
	}
}

// RequiresSetup reports that no admin password has been configured yet.
func (e Env) RequiresSetup() bool { return e.AdminPassword == "" }

// LockSecret is the draw-lock signing secret.
func (e Env) LockSecret() string {
	if e.AdminPassword != "" {
		return e.AdminPassword
	}
	return drawLockFallbackSecret
}
