package overlay

import (
	_ "embed"
)

//go:embed scripts/apply.sh
var applyScript []byte

// ApplyScript returns the overlay apply script uploaded to every
// instance at RemoteApplyScript. The script is self-contained and
// idempotent, so operators can re-run it from an SSH session at any
// time.
func ApplyScript() []byte {
	return applyScript
}

// RegisterAliasCommand makes the srcds-apply alias available in root's
// shell. The guard keeps repeated provisioning runs from stacking
// duplicate alias lines.
const RegisterAliasCommand = `bash -lc 'PROFILE=/root/.bashrc; touch "$PROFILE"; grep -q "alias srcds-apply=" "$PROFILE" || echo "alias srcds-apply=\"bash /root/srcds-apply.sh\"" >> "$PROFILE"'`
