package domain

// DefaultTreatmentType is one catalog entry seeded on first run.
type DefaultTreatmentType struct {
	Name  string
	Color string
}

// DefaultTreatmentTypes is the built-in catalog. Migration seeds it in full
// on first run and, on later runs, inserts any entry whose name is not yet
// present, so the catalog can grow across versions without duplicating or
// disturbing user-created or renamed types.
func DefaultTreatmentTypes() []DefaultTreatmentType {
	return []DefaultTreatmentType{
		{Name: "Veneer", Color: "#0ea5e9"},
		{Name: "Smile Design", Color: "#8b5cf6"},
		{Name: "Orthodontics", Color: "#ec4899"},
		{Name: "Aligners", Color: "#10b981"},
		{Name: "Implants", Color: "#f59e0b"},
		{Name: "Whitening", Color: "#06b6d4"},
		{Name: "Crown", Color: "#6366f1"},
		{Name: "Bridge", Color: "#14b8a6"},
		{Name: "Bonding", Color: "#f43f5e"},
		{Name: "Contouring", Color: "#84cc16"},
		{Name: "Root Canal", Color: "#a855f7"},
	}
}

// DefaultAutoLockMinutes is the privacy auto-lock timeout applied on first
// run; 0 would mean never.
const DefaultAutoLockMinutes = 5

// DefaultClinicName is the branding seeded on first run.
const DefaultClinicName = "Aspen Clinic Snap"

// DefaultAppSettings returns the settings singleton seeded on first run: PIN
// disabled, default auto-lock timeout, bundled default logo.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Branding: BrandingSettings{
			ClinicName:     DefaultClinicName,
			UseDefaultLogo: true,
		},
		Privacy: PrivacySettings{
			PINEnabled:      false,
			AutoLockTimeout: DefaultAutoLockMinutes,
		},
	}
}
