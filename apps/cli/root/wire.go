package root

import (
	"github.com/CollinsCMK/healthfiti-backend-sub000/apps/cli/cmd/auth"
	"github.com/CollinsCMK/healthfiti-backend-sub000/apps/cli/cmd/bootstrap"
	tenantcmd "github.com/CollinsCMK/healthfiti-backend-sub000/apps/cli/cmd/tenant"
)

func init() {
	Root().AddCommand(auth.Command())
	Root().AddCommand(bootstrap.Command())
	Root().AddCommand(tenantcmd.Command())
}
