// Package profile turns a flat JSON run profile into the script's
// "--key value" arguments, keeping the document's key order.
package profile

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/kballard/go-shellquote"
	"github.com/tidwall/gjson"

	"github.com/SanjoDeundiak/script-runner/pkg/lib"
)

// Flag is one "--Name Value" pair.
type Flag struct {
	Name  string
	Value string
}

type Profile struct {
	Flags []Flag
}

// secretFlags are masked by Display.
var secretFlags = map[string]bool{
	"password": true,
}

// Load reads and parses a profile file.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read profile %s", path)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "profile %s", path)
	}
	return p, nil
}

// Parse decodes a flat JSON object. Booleans become true/false, numbers keep
// their literal text, strings are taken verbatim and nulls are dropped.
// Nested objects and arrays are rejected.
func Parse(data []byte) (*Profile, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("invalid JSON")
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, errors.Newf("expected a JSON object, got %s", doc.Type)
	}

	p := &Profile{}
	var parseErr error
	doc.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if name == "" {
			parseErr = errors.New("empty key")
			return false
		}
		switch value.Type {
		case gjson.Null:
			return true
		case gjson.True:
			p.Flags = append(p.Flags, Flag{Name: name, Value: "true"})
		case gjson.False:
			p.Flags = append(p.Flags, Flag{Name: name, Value: "false"})
		case gjson.Number:
			p.Flags = append(p.Flags, Flag{Name: name, Value: value.Raw})
		case gjson.String:
			p.Flags = append(p.Flags, Flag{Name: name, Value: value.Str})
		default:
			parseErr = errors.Newf("key %q: nested values are not supported", name)
			return false
		}
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return p, nil
}

// Get returns the value of the named flag.
func (p *Profile) Get(name string) (string, bool) {
	for _, f := range p.Flags {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Args returns the flags as an argv tail. No quoting is needed: each value is one argument.
func (p *Profile) Args() []string {
	args := make([]string, 0, 2*len(p.Flags))
	for _, f := range p.Flags {
		args = append(args, "--"+f.Name, f.Value)
	}
	return args
}

// Request builds a run request for script under executable with the profile's flags.
func (p *Profile) Request(executable, script string) lib.RunRequest {
	return lib.RunRequest{
		Executable: executable,
		Script:     script,
		Args:       p.Args(),
	}
}

// Display renders a request as a shell-quoted command line with secrets masked.
func Display(request lib.RunRequest) string {
	argv := append([]string{request.Executable}, request.Argv()...)
	masked := make([]string, len(argv))
	copy(masked, argv)
	for i := 1; i < len(masked); i++ {
		name, ok := strings.CutPrefix(masked[i-1], "--")
		if ok && secretFlags[name] {
			masked[i] = "REDACTED"
		}
	}
	return shellquote.Join(masked...)
}
