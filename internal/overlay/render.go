package overlay

import (
	"bytes"
	"strings"
)

// Placeholder keys understood by bootstrap templates. Both the ${KEY}
// and the bare KEY_REPLACE spellings are substituted.
const (
	KeyServerHostname    = "SERVER_HOSTNAME"
	KeyRCONPassword      = "RCON_PASSWORD"
	KeyServerPassword    = "SERVER_PASSWORD"
	KeyStartMap          = "START_MAP"
	KeySpectatorPassword = "SPECTATOR_PASSWORD"
)

// postInstallMarker guards the appended apply-script invocation.
const postInstallMarker = "SRCDSCTL_POSTINSTALL"

// RenderSetupScript renders a bootstrap template: line endings are
// normalized to LF and every placeholder is replaced with its escaped
// value. Unknown placeholders are left alone so template authors see
// their mistakes in the uploaded script.
func RenderSetupScript(template []byte, subs map[string]string) []byte {
	text := string(template)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	for key, value := range subs {
		escaped := shellEscape(value)
		text = strings.ReplaceAll(text, "${"+key+"}", escaped)
		text = strings.ReplaceAll(text, key+"_REPLACE", escaped)
	}
	return []byte(text)
}

// shellEscape makes a value safe inside a double-quoted shell string.
// Generated passwords may contain $ and other metacharacters; without
// escaping they would expand or break quoting in the rendered script.
func shellEscape(s string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`"`, `\"`,
		"`", "\\`",
		`$`, `\$`,
	)
	return replacer.Replace(s)
}

// EnsurePostInstall appends a marker-guarded block that runs the apply
// script once the bootstrap finishes, so the overlay lands even when
// the template author forgot to invoke it. Rendering an already
// patched template never duplicates the block.
func EnsurePostInstall(script []byte) []byte {
	if bytes.Contains(script, []byte(postInstallMarker)) {
		return script
	}
	block := "\n# " + postInstallMarker + "\nbash " + RemoteApplyScript + " || true\n"
	return append(script, []byte(block)...)
}
