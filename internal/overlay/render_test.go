package overlay

import (
	"bytes"
	"strings"
	"testing"
)

func TestRenderSetupScript(t *testing.T) {
	template := []byte("HOSTNAME=\"${SERVER_HOSTNAME}\"\nRCON=\"RCON_PASSWORD_REPLACE\"\nMAP=${START_MAP}\n")

	out := RenderSetupScript(template, map[string]string{
		KeyServerHostname: "tf2-01",
		KeyRCONPassword:   "supersecret16chr",
		KeyStartMap:       "cp_badlands",
	})

	got := string(out)
	if !strings.Contains(got, `HOSTNAME="tf2-01"`) {
		t.Errorf("hostname placeholder not substituted: %s", got)
	}
	if !strings.Contains(got, `RCON="supersecret16chr"`) {
		t.Errorf("KEY_REPLACE form not substituted: %s", got)
	}
	if !strings.Contains(got, "MAP=cp_badlands") {
		t.Errorf("start map not substituted: %s", got)
	}
	if strings.Contains(got, "REPLACE") || strings.Contains(got, "${") {
		t.Errorf("placeholders left behind: %s", got)
	}
}

func TestRenderSetupScriptNormalizesLineEndings(t *testing.T) {
	out := RenderSetupScript([]byte("one\r\ntwo\rthree\n"), nil)
	if string(out) != "one\ntwo\nthree\n" {
		t.Errorf("line endings not normalized: %q", out)
	}
}

func TestRenderSetupScriptEscapesShellMetacharacters(t *testing.T) {
	template := []byte(`PASS="${SERVER_PASSWORD}"`)

	out := RenderSetupScript(template, map[string]string{
		KeyServerPassword: `a$b"c\d` + "`e",
	})

	want := `PASS="a\$b\"c\\d` + "\\`e\""
	if string(out) != want {
		t.Errorf("escaping mismatch:\n got %q\nwant %q", out, want)
	}
}

func TestRenderSetupScriptKeepsUnknownPlaceholders(t *testing.T) {
	template := []byte("X=${SOMETHING_ELSE}\n")
	out := RenderSetupScript(template, map[string]string{KeyStartMap: "cp_badlands"})
	if string(out) != "X=${SOMETHING_ELSE}\n" {
		t.Errorf("unknown placeholder was touched: %q", out)
	}
}

func TestEnsurePostInstallAppendsOnce(t *testing.T) {
	script := []byte("#!/usr/bin/env bash\necho install\n")

	once := EnsurePostInstall(script)
	if !bytes.Contains(once, []byte("bash "+RemoteApplyScript)) {
		t.Fatalf("apply invocation missing: %s", once)
	}

	twice := EnsurePostInstall(once)
	if !bytes.Equal(once, twice) {
		t.Error("second EnsurePostInstall changed the script")
	}
	if bytes.Count(twice, []byte(postInstallMarker)) != 1 {
		t.Errorf("marker appears %d times, want 1", bytes.Count(twice, []byte(postInstallMarker)))
	}
}

func TestEnsurePostInstallRespectsTemplateOwnCall(t *testing.T) {
	script := []byte("#!/usr/bin/env bash\necho install\n# SRCDSCTL_POSTINSTALL\nbash /root/srcds-apply.sh\n")

	out := EnsurePostInstall(script)
	if !bytes.Equal(out, script) {
		t.Error("template with its own post-install block was modified")
	}
}
