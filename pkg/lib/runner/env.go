package runner

import (
	"runtime"
	"sort"
	"strings"
)

// utf8Env forces UTF-8 stdio in the child regardless of the host locale.
var utf8Env = [][2]string{
	{"PYTHONIOENCODING", "utf-8"},
	{"PYTHONUTF8", "1"},
	{"LC_ALL", "en_US.UTF-8"},
	{"LANG", "en_US.UTF-8"},
}

// buildEnv merges overrides onto base (KEY=VALUE entries). The UTF-8 settings win over both.
func buildEnv(base []string, overrides map[string]string) []string {
	type entry struct{ key, value string }
	var entries []entry
	index := make(map[string]int)

	set := func(key, value string) {
		k := envKey(key)
		if i, ok := index[k]; ok {
			entries[i].value = value
			return
		}
		index[k] = len(entries)
		entries = append(entries, entry{key, value})
	}

	for _, kv := range base {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		set(key, value)
	}

	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		set(k, overrides[k])
	}

	for _, kv := range utf8Env {
		set(kv[0], kv[1])
	}

	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.key+"="+e.value)
	}
	return out
}

func envKey(key string) string {
	if runtime.GOOS == "windows" {
		return strings.ToUpper(key)
	}
	return key
}
