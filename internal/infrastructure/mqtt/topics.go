package mqtt

import (
	"fmt"
	"strings"
)

// Topics builds the bridge's topic names under a configurable prefix.
//
//	<prefix>/state/<nativeID>    retained JSON state
//	<prefix>/command/<nativeID>  {"on":bool,"brightness":int}
//	<prefix>/status              online/offline, used as LWT
type Topics struct {
	Prefix string
}

func (t Topics) State(nativeID string) string {
	return fmt.Sprintf("%s/state/%s", t.Prefix, nativeID)
}

// AllCommands matches the command topic of every device.
func (t Topics) AllCommands() string {
	return t.Prefix + "/command/+"
}

func (t Topics) Status() string {
	return t.Prefix + "/status"
}

// CommandTarget extracts the native ID from a command topic.
func (t Topics) CommandTarget(topic string) (string, bool) {
	id, ok := strings.CutPrefix(topic, t.Prefix+"/command/")
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}
