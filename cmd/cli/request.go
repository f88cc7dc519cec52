package main

import (
	"strings"

	"github.com/cockroachdb/errors"

	apiv1 "github.com/SanjoDeundiak/script-runner/api/v1"
	"github.com/SanjoDeundiak/script-runner/pkg/lib"
	"github.com/SanjoDeundiak/script-runner/pkg/lib/profile"
)

// requestFlags describe a run request on the command line.
type requestFlags struct {
	script  string
	profile string
	dir     string
	env     []string
}

// buildRequest turns "<executable> [args...]" and the flags into a request.
// Profile flags come right after the script, before the extra args.
func (f *requestFlags) buildRequest(args []string) (lib.RunRequest, error) {
	if len(args) < 1 {
		return lib.RunRequest{}, errors.New("executable is required; use -- to separate CLI flags from the command")
	}

	request := lib.RunRequest{
		Executable: args[0],
		Script:     f.script,
		Dir:        f.dir,
	}
	if f.profile != "" {
		p, err := profile.Load(f.profile)
		if err != nil {
			return lib.RunRequest{}, err
		}
		request.Args = p.Args()
	}
	request.Args = append(request.Args, args[1:]...)

	for _, kv := range f.env {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return lib.RunRequest{}, errors.Newf("invalid --env %q, want KEY=VALUE", kv)
		}
		if request.Env == nil {
			request.Env = make(map[string]string)
		}
		request.Env[key] = value
	}
	return request, nil
}

func toAPIRequest(r lib.RunRequest) *apiv1.RunRequest {
	return &apiv1.RunRequest{
		Executable: r.Executable,
		Script:     r.Script,
		Args:       r.Args,
		Dir:        r.Dir,
		Env:        r.Env,
	}
}
