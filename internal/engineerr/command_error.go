package engineerr

import "fmt"

// CommandError is what every subprocess wrapper (terraform, helm, kubectl,
// docker) returns on a non-zero exit, per spec §4.1's contract. It is later
// re-wrapped into an EngineError with the correct stage tag at the action
// boundary.
type CommandError struct {
	FullMessage string   // operator-facing, may contain stderr
	SafeMessage string   // end-user-facing, secrets stripped
	Argv        []string
	Envs        []string // already filtered of credential-bearing keys
	ExitCode    int
}

func (c *CommandError) Error() string { return c.FullMessage }

// secretEnvKeys lists environment variable names that NewCommandError
// strips before storing Envs, so a CommandError can be safely logged or
// replayed by an operator without leaking credentials.
var secretEnvKeys = map[string]bool{
	"KUBECONFIG":            false, // path, not a secret, kept
	"AWS_SECRET_ACCESS_KEY": true,
	"AWS_ACCESS_KEY_ID":     true,
	"AWS_SESSION_TOKEN":     true,
	"ARM_CLIENT_SECRET":     true,
	"GOOGLE_CREDENTIALS":    true,
	"SCW_SECRET_KEY":        true,
	"VAULT_TOKEN":           true,
	"VAULT_SECRET_ID":       true,
}

// NewCommandError builds a CommandError from a failed subprocess
// invocation. envs is the full environment the subprocess ran with; it is
// filtered before being retained for replay.
func NewCommandError(argv []string, envs []string, stderr string, exitCode int) *CommandError {
	return &CommandError{
		FullMessage: fmt.Sprintf("command %v exited %d: %s", argv, exitCode, stderr),
		SafeMessage: fmt.Sprintf("command %s exited with code %d", argv[0], exitCode),
		Argv:        argv,
		Envs:        filterEnvs(envs),
		ExitCode:    exitCode,
	}
}

func filterEnvs(envs []string) []string {
	out := make([]string, 0, len(envs))
	for _, kv := range envs {
		key := kv
		for i, c := range kv {
			if c == '=' {
				key = kv[:i]
				break
			}
		}
		if secretEnvKeys[key] {
			continue
		}
		out = append(out, kv)
	}
	return out
}
