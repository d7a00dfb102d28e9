package manifest_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/jacentio/orgmanager/internal/component"
	"github.com/jacentio/orgmanager/internal/manifest"
)

func TestRegionSetKeyRoundTrip(t *testing.T) {
	regions := []string{"ap-southeast-1", "us-west-2"}
	key := manifest.RegionSetKey(regions)

	if key != "ap-southeast-1|us-west-2" {
		t.Errorf("expected 'ap-southeast-1|us-west-2', got %q", key)
	}
	if diff := cmp.Diff(regions, manifest.SplitRegionSetKey(key)); diff != "" {
		t.Errorf("split mismatch (-expected +got):\n%s", diff)
	}
}

func TestAssembleGroupsByRegionSet(t *testing.T) {
	componentsByUnit := map[string][]component.Component{
		"ou-1": {
			{Name: "iam", RunOrder: 2, ResourceFile: "templates/iam.yaml", Parameters: map[string]string{"Stage": "prod"}},
			{Name: "vpc", RunOrder: 1, ResourceFile: "templates/vpc.yaml", Parameters: map[string]string{"Cidr": "10.0.0.0/16"}},
		},
	}
	regionSetsByUnit := map[string]map[string][]string{
		"ou-1": {
			"ap-southeast-1|us-west-2": {"111122223333", "444455556666"},
		},
	}

	m := manifest.Assemble(componentsByUnit, regionSetsByUnit, "us-west-2")

	if m.Region != "us-west-2" {
		t.Errorf("expected region 'us-west-2', got %q", m.Region)
	}
	if len(m.Resources) != 2 {
		t.Fatalf("expected 2 resources, got %d", len(m.Resources))
	}

	// Run order 1 before run order 2.
	first, second := m.Resources[0], m.Resources[1]
	if first.Name != "vpc-ap-southeast-1-us-west-2" {
		t.Errorf("expected 'vpc-ap-southeast-1-us-west-2', got %q", first.Name)
	}
	if second.Name != "iam-ap-southeast-1-us-west-2" {
		t.Errorf("expected 'iam-ap-southeast-1-us-west-2', got %q", second.Name)
	}
	if first.Description != "stack set for vpc" {
		t.Errorf("expected 'stack set for vpc', got %q", first.Description)
	}
	if first.DeployMethod != "stack_set" {
		t.Errorf("expected deploy method 'stack_set', got %q", first.DeployMethod)
	}

	expectedAccounts := []string{"111122223333", "444455556666"}
	for _, resource := range m.Resources {
		if diff := cmp.Diff(expectedAccounts, resource.DeploymentTargets.Accounts); diff != "" {
			t.Errorf("accounts mismatch for %s (-expected +got):\n%s", resource.Name, diff)
		}
		if diff := cmp.Diff([]string{"ap-southeast-1", "us-west-2"}, resource.Regions); diff != "" {
			t.Errorf("regions mismatch for %s (-expected +got):\n%s", resource.Name, diff)
		}
	}
}

func TestAssembleDeterministicAcrossUnitsAndSets(t *testing.T) {
	componentsByUnit := map[string][]component.Component{
		"ou-b": {{Name: "vpc", RunOrder: 1, ResourceFile: "templates/vpc.yaml", Parameters: map[string]string{"A": "1"}}},
		"ou-a": {{Name: "iam", RunOrder: 1, ResourceFile: "templates/iam.yaml", Parameters: map[string]string{"A": "1"}}},
	}
	regionSetsByUnit := map[string]map[string][]string{
		"ou-b": {
			"us-west-2": {"111122223333"},
			"eu-west-1": {"444455556666"},
		},
		"ou-a": {
			"us-east-1": {"777788889999"},
		},
	}

	first := manifest.Assemble(componentsByUnit, regionSetsByUnit, "us-west-2")
	for i := 0; i < 10; i++ {
		again := manifest.Assemble(componentsByUnit, regionSetsByUnit, "us-west-2")
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("assembly not deterministic (-first +again):\n%s", diff)
		}
	}

	// Units sorted, then region-set keys sorted within each unit.
	var names []string
	for _, resource := range first.Resources {
		names = append(names, resource.Name)
	}
	expected := []string{"iam-us-east-1", "vpc-eu-west-1", "vpc-us-west-2"}
	if diff := cmp.Diff(expected, names); diff != "" {
		t.Errorf("resource order mismatch (-expected +got):\n%s", diff)
	}
}

func TestAssembleSkipsUnitsWithoutMapping(t *testing.T) {
	componentsByUnit := map[string][]component.Component{
		"ou-1": {{Name: "vpc", RunOrder: 1, ResourceFile: "templates/vpc.yaml", Parameters: map[string]string{"A": "1"}}},
	}
	regionSetsByUnit := map[string]map[string][]string{
		"ou-1": nil,
	}

	m := manifest.Assemble(componentsByUnit, regionSetsByUnit, "us-west-2")
	if len(m.Resources) != 0 {
		t.Errorf("expected no resources for unmapped unit, got %d", len(m.Resources))
	}
}

func TestAssembleStableOrderForEqualRunOrders(t *testing.T) {
	componentsByUnit := map[string][]component.Component{
		"ou-1": {
			{Name: "first", RunOrder: 1, ResourceFile: "templates/first.yaml", Parameters: map[string]string{"A": "1"}},
			{Name: "second", RunOrder: 1, ResourceFile: "templates/second.yaml", Parameters: map[string]string{"A": "1"}},
		},
	}
	regionSetsByUnit := map[string]map[string][]string{
		"ou-1": {"us-west-2": {"111122223333"}},
	}

	m := manifest.Assemble(componentsByUnit, regionSetsByUnit, "us-west-2")
	if len(m.Resources) != 2 {
		t.Fatalf("expected 2 resources, got %d", len(m.Resources))
	}
	if m.Resources[0].Name != "first-us-west-2" || m.Resources[1].Name != "second-us-west-2" {
		t.Errorf("expected input order preserved for equal run orders, got %q then %q",
			m.Resources[0].Name, m.Resources[1].Name)
	}
}

func TestParametersFlattenedInKeyOrder(t *testing.T) {
	componentsByUnit := map[string][]component.Component{
		"ou-1": {{
			Name:         "vpc",
			RunOrder:     1,
			ResourceFile: "templates/vpc.yaml",
			Parameters: map[string]string{
				"Zeta":  "z",
				"Alpha": "a",
				"Mid":   "m",
			},
		}},
	}
	regionSetsByUnit := map[string]map[string][]string{
		"ou-1": {"us-west-2": {"111122223333"}},
	}

	m := manifest.Assemble(componentsByUnit, regionSetsByUnit, "us-west-2")
	expected := []manifest.Parameter{
		{Key: "Alpha", Value: "a"},
		{Key: "Mid", Value: "m"},
		{Key: "Zeta", Value: "z"},
	}
	if diff := cmp.Diff(expected, m.Resources[0].Parameters); diff != "" {
		t.Errorf("parameter order mismatch (-expected +got):\n%s", diff)
	}
}

func TestManifestYAMLRoundTrip(t *testing.T) {
	componentsByUnit := map[string][]component.Component{
		"ou-1": {
			{Name: "vpc", RunOrder: 1, ResourceFile: "templates/vpc.yaml", Parameters: map[string]string{"Cidr": "10.0.0.0/16"}},
			{Name: "iam", RunOrder: 2, ResourceFile: "templates/iam.yaml", Parameters: map[string]string{"Stage": "prod"}},
		},
	}
	regionSetsByUnit := map[string]map[string][]string{
		"ou-1": {
			"eu-west-1|us-west-2": {"111122223333"},
			"us-east-1":           {"444455556666"},
		},
	}

	original := manifest.Assemble(componentsByUnit, regionSetsByUnit, "us-west-2")

	doc, err := yaml.Marshal(original)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(doc), "%%VERSION%%") {
		t.Error("expected version placeholder in serialized document")
	}

	var parsed manifest.Manifest
	if err := yaml.Unmarshal(doc, &parsed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(original, parsed); diff != "" {
		t.Errorf("round trip mismatch (-original +parsed):\n%s", diff)
	}
}
