package render

import (
	"strings"
	"testing"

	"github.com/cocoatly/cocoatly/pkg/resolver"
	"github.com/cocoatly/cocoatly/pkg/semver"
)

func testPlan() *resolver.Plan {
	return &resolver.Plan{
		Packages: []resolver.ResolvedDependency{
			{
				Name:    "app",
				Version: semver.MustParse("1.0.0"),
				Dependencies: []resolver.Dependency{
					{Name: "lib", Requirement: semver.MustParseRequirement("^1.0.0")},
					{Name: "extra", Requirement: semver.MustParseRequirement("*"), Optional: true},
					{Name: "unresolved", Requirement: semver.MustParseRequirement("*")},
				},
			},
			{Name: "lib", Version: semver.MustParse("1.2.0")},
		},
		InstallOrder: []string{"lib", "app"},
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(testPlan(), Options{})

	if !strings.HasPrefix(dot, "digraph deps {") {
		t.Errorf("DOT should open a digraph: %s", dot[:40])
	}
	if !strings.Contains(dot, `"app"`) || !strings.Contains(dot, `"lib"`) {
		t.Error("DOT should contain a node per resolved package")
	}
	if !strings.Contains(dot, `"app" -> "lib";`) {
		t.Error("DOT should contain the app -> lib edge")
	}
	// Optional deps are not resolved, so they never appear as edges.
	if strings.Contains(dot, "extra") {
		t.Error("optional dependency should not appear")
	}
	if strings.Contains(dot, "unresolved") {
		t.Error("edges must only point at resolved packages")
	}
}

func TestToDOTDetailed(t *testing.T) {
	dot := ToDOT(testPlan(), Options{Detailed: true})

	if !strings.Contains(dot, "app\\n1.0.0") {
		t.Errorf("detailed labels should carry versions:\n%s", dot)
	}
}

func TestToDOTExisting(t *testing.T) {
	dot := ToDOT(testPlan(), Options{Existing: map[string]bool{"lib": true}})

	if !strings.Contains(dot, "dashed") {
		t.Error("existing packages should be drawn dashed")
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(ToDOT(testPlan(), Options{Detailed: true}))
	if err != nil {
		t.Fatalf("RenderSVG error: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Error("output should be SVG")
	}
	if !strings.Contains(string(svg), `viewBox="0 0`) {
		t.Error("viewBox should be normalized to origin")
	}
}
