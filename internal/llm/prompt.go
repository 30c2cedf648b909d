package llm

import (
	_ "embed"
	"fmt"
	"strings"
)

//go:embed prompts/solar_v1.txt
var promptV1 string

// SiteContext carries per-site details appended to the base prompt.
type SiteContext struct {
	Latitude     *float64
	Longitude    *float64
	RoofAreaM2   float64
	BuildingType string
	RoofType     string
	Floors       int
	RoofAccess   string
	HasImage     bool
}

// PromptTemplate returns the base prompt text and whether the version was recognized.
func PromptTemplate(version string) (string, bool) {
	switch version {
	case "v1", "":
		return promptV1, version == "v1"
	default:
		return promptV1, false
	}
}

// BuildPrompt assembles the full prompt for a site: the location block for
// coordinate sites, the base instructions, and any extra building context.
func BuildPrompt(version string, site SiteContext) string {
	base, _ := PromptTemplate(version)

	var b strings.Builder
	if !site.HasImage && site.Latitude != nil && site.Longitude != nil {
		b.WriteString("Analyze rooftop solar panel feasibility for:\n")
		fmt.Fprintf(&b, "- Latitude: %.6f\n", *site.Latitude)
		fmt.Fprintf(&b, "- Longitude: %.6f\n", *site.Longitude)
		if site.RoofAreaM2 > 0 {
			fmt.Fprintf(&b, "- Approximate roof area: %.0f m2\n", site.RoofAreaM2)
		}
		if site.BuildingType != "" {
			fmt.Fprintf(&b, "- Building type: %s\n", site.BuildingType)
		}
		if site.Floors > 0 {
			fmt.Fprintf(&b, "- Number of floors: %d\n", site.Floors)
		}
		if site.RoofAccess != "" {
			fmt.Fprintf(&b, "- Roof accessibility: %s\n", site.RoofAccess)
		}
		b.WriteString("\n")
	}

	b.WriteString(base)

	if site.HasImage {
		var extras []string
		if site.RoofType != "" {
			extras = append(extras, "Roof type is "+site.RoofType)
		}
		if site.BuildingType != "" {
			extras = append(extras, "Building type is "+site.BuildingType)
		}
		if len(extras) > 0 {
			b.WriteString("\n\nAdditional context: ")
			b.WriteString(strings.Join(extras, ", "))
		}
	}

	return b.String()
}
