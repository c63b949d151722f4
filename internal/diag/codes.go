package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// weaving
	WeaveInfo             Code = 1000
	WeaveUnsupportedShape Code = 1001
	WeaveMissingDispatch  Code = 1002
	WeaveOverloadFallback Code = 1003
	WeaveOverloadNotFound Code = 1004
	WeaveInvalidBody      Code = 1005
	WeaveInfraInjected    Code = 1006
	WeaveMemberWoven      Code = 1007
	WeaveCallRebound      Code = 1008

	// resolution
	ResInfo        Code = 2000
	ResUnresolved  Code = 2001
	ResCoreMissing Code = 2002

	// reference cleanup
	CleanInfo               Code = 3000
	CleanRemovedReference   Code = 3001
	CleanRemovedAttribute   Code = 3002
	CleanNothingToRemove    Code = 3003
	CleanReferenceStillUsed Code = 3004

	// configuration
	CfgInfo         Code = 4000
	CfgInvalidValue Code = 4001
	CfgFeatureOff   Code = 4002

	// fixtures
	FixInfo               Code = 5000
	FixInvalidInstruction Code = 5001
	FixUnknownType        Code = 5002
	FixUnknownMember      Code = 5003
	FixSyntax             Code = 5004

	// observability
	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:             "Unknown error",
		WeaveInfo:               "Weaving information",
		WeaveUnsupportedShape:   "Member shape does not admit an injection point",
		WeaveMissingDispatch:    "No change-notification dispatch helper available",
		WeaveOverloadFallback:   "No exact-type validation overload; default overload used",
		WeaveOverloadNotFound:   "No exact-type validation overload",
		WeaveInvalidBody:        "Woven body failed validation",
		WeaveInfraInjected:      "Notification infrastructure injected",
		WeaveMemberWoven:        "Member woven",
		WeaveCallRebound:        "Validation call rebound",
		ResInfo:                 "Resolution information",
		ResUnresolved:           "Unresolved type reference",
		ResCoreMissing:          "Core library member missing",
		CleanInfo:               "Reference cleanup information",
		CleanRemovedReference:   "Build-time reference removed",
		CleanRemovedAttribute:   "Build-time attribute removed",
		CleanNothingToRemove:    "No build-time reference to remove",
		CleanReferenceStillUsed: "Build-time reference still in use",
		CfgInfo:                 "Configuration information",
		CfgInvalidValue:         "Invalid configuration value",
		CfgFeatureOff:           "Feature disabled by configuration",
		FixInfo:                 "Fixture information",
		FixInvalidInstruction:   "Invalid instruction in fixture body",
		FixUnknownType:          "Unknown type in fixture",
		FixUnknownMember:        "Unknown member in fixture",
		FixSyntax:               "Malformed fixture file",
		ObsInfo:                 "Observability information",
		ObsTimings:              "Pipeline timings",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("WVE%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("RES%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("CLN%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("CFG%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("FIX%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
