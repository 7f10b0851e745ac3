package state

import (
	"context"

	"clinicalsnap/pkg/domain"
)

// BrandingPatch carries the branding fields to change; nil fields are left
// untouched.
type BrandingPatch struct {
	ClinicName     *string
	LogoData       *[]byte
	UseDefaultLogo *bool
}

// PrivacyPatch carries the privacy fields to change; nil fields are left
// untouched. PINHash receives the hash only, never the plaintext PIN.
type PrivacyPatch struct {
	PINEnabled      *bool
	PINHash         *string
	AutoLockTimeout *int
}

// SettingsPatch is a shallow merge per sub-object: a nil sub-patch leaves
// that sub-object as is.
type SettingsPatch struct {
	Branding *BrandingPatch
	Privacy  *PrivacyPatch
}

// UpdateSettings merges the patch onto the settings singleton, persists it,
// then mirrors it, returning the merged result.
func (s *Store) UpdateSettings(ctx context.Context, patch SettingsPatch) (domain.AppSettings, error) {
	var merged domain.AppSettings
	err := s.instrument(ctx, "update_settings", func(ctx context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		merged = s.settings

		if b := patch.Branding; b != nil {
			if b.ClinicName != nil {
				merged.Branding.ClinicName = *b.ClinicName
			}
			if b.LogoData != nil {
				merged.Branding.LogoData = *b.LogoData
			}
			if b.UseDefaultLogo != nil {
				merged.Branding.UseDefaultLogo = *b.UseDefaultLogo
			}
		}
		if p := patch.Privacy; p != nil {
			if p.PINEnabled != nil {
				merged.Privacy.PINEnabled = *p.PINEnabled
			}
			if p.PINHash != nil {
				merged.Privacy.PINHash = *p.PINHash
			}
			if p.AutoLockTimeout != nil {
				merged.Privacy.AutoLockTimeout = *p.AutoLockTimeout
			}
		}

		if err := s.db.PutSetting(ctx, domain.SettingAppSettings, merged); err != nil {
			return err
		}
		s.settings = merged
		return nil
	})
	return merged, err
}
