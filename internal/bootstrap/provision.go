package bootstrap

import "github.com/gary-dev/gary-install/internal/venv"

func venvProvisioner(r *run) venv.Provisioner {
	return venv.Provisioner{Runner: r.opts.Runner, GOOS: r.opts.GOOS}
}
