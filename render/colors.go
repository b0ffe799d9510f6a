package render

import (
	"github.com/lixenwraith/vi-office/agent"
	"github.com/lixenwraith/vi-office/theme"
)

// Stage palette
var (
	RgbBackground = RGB{26, 27, 38} // Tokyo Night background
	RgbLabel      = RGB{192, 202, 245}
	RgbLabelDim   = RGB{120, 126, 160}
	RgbSelection  = RGB{255, 255, 255}
	RgbWarning    = RGB{255, 158, 100}
	RgbLine       = RGB{59, 130, 246}
	RgbGround     = RGB{52, 56, 78}

	RgbStatusWorking       = RGB{34, 197, 94}
	RgbStatusIdle          = RGB{234, 179, 8}
	RgbStatusBlocked       = RGB{239, 68, 68}
	RgbStatusCollaborating = RGB{59, 130, 246}

	RgbZoneWork    = RGB{59, 130, 246}
	RgbZoneMeeting = RGB{168, 85, 247}
	RgbZoneLounge  = RGB{34, 197, 94}
	RgbZoneCustom  = RGB{148, 163, 184}
)

// DefaultStatusColor returns the built-in color for a status
func DefaultStatusColor(s agent.Status) RGB {
	switch s {
	case agent.StatusIdle:
		return RgbStatusIdle
	case agent.StatusBlocked:
		return RgbStatusBlocked
	case agent.StatusCollaborating:
		return RgbStatusCollaborating
	default:
		return RgbStatusWorking
	}
}

// StatusColor resolves the badge color from the manifest, falling back to defaults
func StatusColor(m *theme.Manifest, s agent.Status) RGB {
	def := DefaultStatusColor(s)
	return ParseColor(m.BadgeColor(string(s), ""), def)
}

// ZoneColor returns a zone's explicit color or its type color
func ZoneColor(z theme.Zone) RGB {
	var def RGB
	switch z.Type {
	case theme.ZoneWork:
		def = RgbZoneWork
	case theme.ZoneMeeting:
		def = RgbZoneMeeting
	case theme.ZoneLounge:
		def = RgbZoneLounge
	default:
		def = RgbZoneCustom
	}
	return ParseColor(z.Color, def)
}

// AgentColor is the agent's own color, or its status color
func AgentColor(a agent.Agent, m *theme.Manifest) RGB {
	return ParseColor(a.Color, StatusColor(m, a.Status))
}
