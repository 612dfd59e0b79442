package canonical

import (
	"fmt"
	"strings"
	"time"

	"mixvault/internal/catalog"
	"mixvault/internal/config"
	"mixvault/internal/matcher"
)

// mediumAutoVerifyCeiling is the highest caller threshold that still lets a
// medium-tier track auto-verify.
const mediumAutoVerifyCeiling = 0.7

// EntityKind selects which verification rule applies.
type EntityKind string

const (
	EntityMix    EntityKind = "mix"
	EntityArtist EntityKind = "artist"
	EntityTrack  EntityKind = "track"
)

// Options controls verification of newly created entities.
type Options struct {
	// Mode is config.ModeBackfill or config.ModeRolling. Empty means backfill.
	Mode                string
	AutoVerifyThreshold float64
	// SystemIdentity is recorded as verified_by when auto-verifying.
	SystemIdentity string
}

// OptionsFromConfig builds Options from canonicalization configuration.
func OptionsFromConfig(cfg config.Canonicalize) Options {
	return Options{
		Mode:                cfg.Mode,
		AutoVerifyThreshold: cfg.AutoVerifyThreshold,
		SystemIdentity:      cfg.SystemIdentity,
	}
}

func (o Options) normalized() (Options, error) {
	o.Mode = strings.ToLower(strings.TrimSpace(o.Mode))
	o.SystemIdentity = strings.TrimSpace(o.SystemIdentity)
	switch o.Mode {
	case "":
		o.Mode = config.ModeBackfill
	case config.ModeBackfill, config.ModeRolling:
	default:
		return o, fmt.Errorf("unsupported mode %q", o.Mode)
	}
	if o.AutoVerifyThreshold < 0 || o.AutoVerifyThreshold > 1 {
		return o, fmt.Errorf("auto verify threshold %v outside [0,1]", o.AutoVerifyThreshold)
	}
	return o, nil
}

// VerificationFor returns the verification state for a newly created entity.
// Backfill never verifies. Rolling verifies mixes and artists whenever a
// system identity is set; tracks additionally need a high tier, or a medium
// tier when the caller threshold is at most 0.7.
func VerificationFor(kind EntityKind, tier matcher.Tier, opts Options, now time.Time) catalog.Verification {
	if !strings.EqualFold(strings.TrimSpace(opts.Mode), config.ModeRolling) {
		return catalog.Verification{}
	}
	identity := strings.TrimSpace(opts.SystemIdentity)
	if identity == "" {
		return catalog.Verification{}
	}
	if kind == EntityTrack {
		switch tier {
		case matcher.TierHigh:
		case matcher.TierMedium:
			if opts.AutoVerifyThreshold > mediumAutoVerifyCeiling {
				return catalog.Verification{}
			}
		default:
			return catalog.Verification{}
		}
	}
	at := now.UTC()
	return catalog.Verification{IsVerified: true, VerifiedBy: identity, VerifiedAt: &at}
}
