package sig

// Bluetooth SIG company identifiers used by the builtin table.
// See: https://www.bluetooth.com/specifications/assigned-numbers/
const (
	CompanyApple     uint16 = 0x004C
	CompanySamsung   uint16 = 0x0075
	CompanyMicrosoft uint16 = 0x0006
	CompanyGoogle    uint16 = 0x00E0
	CompanyGarmin    uint16 = 0x0087
	CompanyBose      uint16 = 0x009E
	CompanyDexcom    uint16 = 0x00D1
	CompanySony      uint16 = 0x012D
	CompanyAmazon    uint16 = 0x0171
	CompanyMeta      uint16 = 0x01AB
	CompanyFitbit    uint16 = 0x0224
	CompanyMedtronic uint16 = 0x02A5
	CompanySnap      uint16 = 0x03C2
	CompanyRazer     uint16 = 0x0532
	CompanyMetaTech  uint16 = 0x058E
	CompanyAbbott    uint16 = 0x0618
	CompanyInsulet   uint16 = 0x0822
	CompanyLuxottica uint16 = 0x0D53
	CompanyTile      uint16 = 0xFEEC
	CompanyTileAlt   uint16 = 0xFEED
	CompanyChipolo   uint16 = 0xFE65
)

// builtins is the compile-time signature table. Declaration order is
// matching order: more specific entries (longer patterns) come first
// within each company so that first-match-wins resolves ties sanely.
var builtins = []Signature{
	// Trackers
	{Name: "AirTag (Registered)", Category: CategoryTracker, CompanyID: CompanyApple,
		Pattern: []byte{0x4C, 0x00, 0x07, 0x19}, PatternOff: 0, Threat: ThreatSevere,
		Flags: FlagMatchCompany | FlagMatchPattern | FlagTransmittable},
	{Name: "AirTag (Unregistered)", Category: CategoryTracker, CompanyID: CompanyApple,
		Pattern: []byte{0x4C, 0x00, 0x12, 0x19}, PatternOff: 0, Threat: ThreatSevere,
		Flags: FlagMatchCompany | FlagMatchPattern | FlagTransmittable},
	{Name: "Samsung SmartTag", Category: CategoryTracker, CompanyID: CompanySamsung,
		Pattern: []byte{0x75, 0x00, 0x42, 0x09, 0x01}, PatternOff: 0, Threat: ThreatSevere,
		Flags: FlagMatchCompany | FlagMatchPattern | FlagTransmittable},
	{Name: "Samsung SmartTag2", Category: CategoryTracker, CompanyID: CompanySamsung,
		Pattern: []byte{0x75, 0x00, 0x42, 0x09, 0x02}, PatternOff: 0, Threat: ThreatSevere,
		Flags: FlagMatchCompany | FlagMatchPattern | FlagTransmittable},
	{Name: "Tile", Category: CategoryTracker, CompanyID: CompanyTile,
		Pattern: []byte{0xEC, 0xFE}, PatternOff: AnyOffset, Threat: ThreatSevere,
		Flags: FlagMatchCompany | FlagMatchPattern | FlagTransmittable},
	{Name: "Tile (Alt)", Category: CategoryTracker, CompanyID: CompanyTileAlt,
		Pattern: []byte{0xED, 0xFE}, PatternOff: AnyOffset, Threat: ThreatSevere,
		Flags: FlagMatchCompany | FlagMatchPattern | FlagTransmittable},
	{Name: "Chipolo", Category: CategoryTracker, CompanyID: CompanyChipolo,
		Pattern: []byte{0x65, 0xFE}, PatternOff: AnyOffset, Threat: ThreatSevere,
		Flags: FlagMatchCompany | FlagMatchPattern | FlagTransmittable},

	// Smart glasses
	{Name: "Meta Ray-Ban", Category: CategoryGlasses, CompanyID: CompanyMeta,
		Threat: ThreatCritical, Flags: FlagMatchCompany | FlagTransmittable},
	{Name: "Meta Ray-Ban (Tech)", Category: CategoryGlasses, CompanyID: CompanyMetaTech,
		Threat: ThreatCritical, Flags: FlagMatchCompany | FlagTransmittable},
	{Name: "Meta Ray-Ban (Luxottica)", Category: CategoryGlasses, CompanyID: CompanyLuxottica,
		Threat: ThreatCritical, Flags: FlagMatchCompany | FlagTransmittable},
	{Name: "Snap Spectacles", Category: CategoryGlasses, CompanyID: CompanySnap,
		Threat: ThreatCritical, Flags: FlagMatchCompany | FlagTransmittable},
	{Name: "Amazon Echo Frames", Category: CategoryGlasses, CompanyID: CompanyAmazon,
		Threat: ThreatHigh, Flags: FlagMatchCompany | FlagTransmittable},
	{Name: "Bose Frames", Category: CategoryGlasses, CompanyID: CompanyBose,
		Threat: ThreatMedium, Flags: FlagMatchCompany | FlagTransmittable},

	// Medical devices. Never transmittable.
	{Name: "Dexcom CGM", Category: CategoryMedical, CompanyID: CompanyDexcom,
		ServiceUUID: 0xFEBC, Threat: ThreatMedium,
		Flags: FlagMatchCompany | FlagMatchService | FlagMedical},
	{Name: "Medtronic Device", Category: CategoryMedical, CompanyID: CompanyMedtronic,
		Threat: ThreatMedium, Flags: FlagMatchCompany | FlagMedical},
	{Name: "Omnipod", Category: CategoryMedical, CompanyID: CompanyInsulet,
		ServiceUUID: 0x1830, Threat: ThreatMedium,
		Flags: FlagMatchCompany | FlagMatchService | FlagMedical},
	{Name: "Abbott FreeStyle", Category: CategoryMedical, CompanyID: CompanyAbbott,
		Threat: ThreatMedium, Flags: FlagMatchCompany | FlagMedical},

	// Wearables
	{Name: "Fitbit", Category: CategoryWearable, CompanyID: CompanyFitbit,
		Threat: ThreatLow, Flags: FlagMatchCompany},
	{Name: "Garmin", Category: CategoryWearable, CompanyID: CompanyGarmin,
		Threat: ThreatLow, Flags: FlagMatchCompany},

	// Audio
	{Name: "Sony Audio", Category: CategoryAudio, CompanyID: CompanySony,
		Threat: ThreatLow, Flags: FlagMatchCompany},
	{Name: "Bose Audio", Category: CategoryAudio, CompanyID: CompanyBose,
		Threat: ThreatLow, Flags: FlagMatchCompany},
}

// Builtin returns the compile-time signature database.
func Builtin() *DB {
	return &DB{entries: builtins}
}
