package dashboard

import (
	"time"

	"homedash/internal/models"
)

// DefaultApps returns the example apps shown on a fresh dashboard.
func DefaultApps() []models.App {
	enabled := func() *bool { v := true; return &v }

	return []models.App{
		{
			ID:                  "network-manager",
			Name:                "Network Manager",
			Description:         "Network infrastructure management",
			Icon:                "network",
			AccentColor:         "hsl(217, 91%, 60%)",
			URL:                 "https://network.example.local:8443",
			NetworkCheckEnabled: enabled(),
			Specification: models.Specification{
				Category: "Network Management",
				Vendor:   "Example Corp",
				Type:     "Web Application",
				Protocol: "HTTPS",
			},
		},
		{
			ID:                  "security-system",
			Name:                "Security System",
			Description:         "Video surveillance and access control",
			Icon:                "camera",
			AccentColor:         "hsl(217, 91%, 60%)",
			URL:                 "https://security.example.local:7443",
			NetworkCheckEnabled: enabled(),
			Specification: models.Specification{
				Category: "Security & Surveillance",
				Vendor:   "SecureTech",
				Type:     "Web Application",
				Protocol: "HTTPS",
			},
		},
		{
			ID:                  "smart-home",
			Name:                "Smart Home Hub",
			Description:         "Home automation and IoT control",
			Icon:                "home",
			AccentColor:         "hsl(199, 89%, 48%)",
			URL:                 "http://smarthome.example.local:8123",
			NetworkCheckEnabled: enabled(),
			Specification: models.Specification{
				Category: "Home Automation",
				Vendor:   "HomeOS",
				Type:     "Web Application",
				Protocol: "HTTP",
			},
		},
		{
			ID:                  "file-server",
			Name:                "File Server",
			Description:         "Network storage and file sharing",
			Icon:                "storage",
			AccentColor:         "hsl(25, 95%, 53%)",
			URL:                 "https://files.example.local:5001",
			NetworkCheckEnabled: enabled(),
			Specification: models.Specification{
				Category: "Storage & NAS",
				Vendor:   "StorageTech",
				Type:     "Web Application",
				Protocol: "HTTPS",
			},
		},
		{
			ID:                  "media-server",
			Name:                "Media Server",
			Description:         "Video and music streaming platform",
			Icon:                "media",
			AccentColor:         "hsl(45, 93%, 58%)",
			URL:                 "http://media.example.local:32400",
			NetworkCheckEnabled: enabled(),
			Specification: models.Specification{
				Category: "Media & Entertainment",
				Vendor:   "MediaStream Inc.",
				Type:     "Media Server",
				Protocol: "HTTP",
			},
		},
		{
			ID:                  "document-manager",
			Name:                "Document Manager",
			Description:         "Digital document organization",
			Icon:                "document",
			AccentColor:         "hsl(142, 76%, 36%)",
			URL:                 "http://docs.example.local:8000",
			NetworkCheckEnabled: enabled(),
			Specification: models.Specification{
				Category: "Document Management",
				Vendor:   "DocuFlow",
				Type:     "Web Application",
				Protocol: "HTTP",
			},
		},
	}
}

// DefaultSettings returns the dashboard chrome used until the user edits it.
func DefaultSettings(now time.Time) models.Settings {
	return models.Settings{
		Title:               "Network Dashboard",
		Subtitle:            "Home Network Services",
		Footer:              "Click apps to launch • Click Edit to customize dashboard",
		NetworkCheckEnabled: true,
		Theme:               &models.Theme{ColorScheme: "auto"},
		Metadata: &models.SettingsMetadata{
			ConfigVersion: models.ConfigVersion,
			LastModified:  models.Timestamp(now),
		},
	}
}
