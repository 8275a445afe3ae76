package resources

import (
	"encoding/json"
	"fmt"
)

// CustomResource is a Custom::<Name> resource. Properties are free-form and are encoded
// alongside the ServiceToken.
type CustomResource struct {
	Name         string
	ServiceToken any
	Properties   map[string]any
}

func (c CustomResource) AWSCloudFormationType() string {
	return "Custom::" + c.Name
}

func (c CustomResource) MarshalJSON() ([]byte, error) {
	props := make(map[string]any, len(c.Properties)+1)
	for k, v := range c.Properties {
		props[k] = v
	}
	if _, ok := props["ServiceToken"]; ok {
		return nil, fmt.Errorf("custom resource %s: ServiceToken must not be set as a property", c.Name)
	}
	props["ServiceToken"] = c.ServiceToken
	return json.Marshal(props)
}
