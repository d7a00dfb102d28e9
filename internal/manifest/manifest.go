// Package manifest assembles and publishes the declarative deployment
// manifest: the unit's components joined with its account/region mapping,
// grouped by identical region sets and ordered by component run order.
package manifest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jacentio/orgmanager/internal/component"
)

// regionSetDelimiter joins a sorted region list into a region-set key.
const regionSetDelimiter = "|"

// versionPlaceholder is substituted with the release version at publish time.
const versionPlaceholder = "%%VERSION%%"

// RegionSetKey encodes a sorted region list as a region-set key.
func RegionSetKey(regions []string) string {
	return strings.Join(regions, regionSetDelimiter)
}

// SplitRegionSetKey decodes a region-set key back into its region list.
func SplitRegionSetKey(key string) []string {
	return strings.Split(key, regionSetDelimiter)
}

// Parameter is one key/value pair of a resource's parameter list.
type Parameter struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

// DeploymentTargets names the accounts a resource rolls out to.
type DeploymentTargets struct {
	Accounts []string `yaml:"accounts"`
}

// StackSetResource is one deployable resource entry of the manifest.
type StackSetResource struct {
	Name              string            `yaml:"name"`
	Description       string            `yaml:"description"`
	ResourceFile      string            `yaml:"resource_file"`
	DeployMethod      string            `yaml:"deploy_method"`
	Parameters        []Parameter       `yaml:"parameters,omitempty"`
	DeploymentTargets DeploymentTargets `yaml:"deployment_targets"`
	Regions           []string          `yaml:"regions"`
}

// Manifest is the generated deployment document.
type Manifest struct {
	Region    string             `yaml:"region"`
	Version   string             `yaml:"version"`
	Resources []StackSetResource `yaml:"resources"`
}

// Assemble joins each unit's components with its region mapping. Accounts
// sharing an identical region set form one equivalence class; every
// component emits one resource per class, ordered by run order. Units and
// region-set keys are iterated in sorted order so output is deterministic.
func Assemble(componentsByUnit map[string][]component.Component, regionSetsByUnit map[string]map[string][]string, publishRegion string) Manifest {
	m := Manifest{
		Region:  publishRegion,
		Version: versionPlaceholder,
	}

	unitIDs := make([]string, 0, len(regionSetsByUnit))
	for ouID := range regionSetsByUnit {
		unitIDs = append(unitIDs, ouID)
	}
	sort.Strings(unitIDs)

	for _, ouID := range unitIDs {
		regionSets := regionSetsByUnit[ouID]
		if regionSets == nil {
			continue
		}

		components := append([]component.Component(nil), componentsByUnit[ouID]...)
		sort.SliceStable(components, func(i, j int) bool {
			return components[i].RunOrder < components[j].RunOrder
		})

		setKeys := make([]string, 0, len(regionSets))
		for key := range regionSets {
			setKeys = append(setKeys, key)
		}
		sort.Strings(setKeys)

		for _, setKey := range setKeys {
			for _, c := range components {
				m.Resources = append(m.Resources, StackSetResource{
					Name:         resourceName(c.Name, setKey),
					Description:  fmt.Sprintf("stack set for %s", c.Name),
					ResourceFile: c.ResourceFile,
					DeployMethod: "stack_set",
					Parameters:   flattenParameters(c.Parameters),
					DeploymentTargets: DeploymentTargets{
						Accounts: regionSets[setKey],
					},
					Regions: SplitRegionSetKey(setKey),
				})
			}
		}
	}

	return m
}

// resourceName derives the stable stack-set name for a component and one
// region-set equivalence class.
func resourceName(componentName, regionSetKey string) string {
	return componentName + "-" + strings.ReplaceAll(regionSetKey, regionSetDelimiter, "-")
}

// flattenParameters orders a parameter map by key so the emitted list is
// deterministic.
func flattenParameters(params map[string]string) []Parameter {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	flattened := make([]Parameter, 0, len(keys))
	for _, key := range keys {
		flattened = append(flattened, Parameter{Key: key, Value: params[key]})
	}
	return flattened
}
