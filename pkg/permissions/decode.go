package permissions

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// ErrMalformedSource is returned when a source document does not have the
// expected shape.
var ErrMalformedSource = errors.New("malformed permission source")

// descriptionsListKey is where the upstream Graph export nests the scope list.
const descriptionsListKey = "delegatedScopesList"

// DecodeDescriptions accepts either a bare array of description objects or an
// object carrying the array under delegatedScopesList.
func DecodeDescriptions(data []byte) ([]Description, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: descriptions: invalid JSON", ErrMalformedSource)
	}

	root := gjson.ParseBytes(data)
	list := root
	if root.IsObject() {
		list = root.Get(descriptionsListKey)
	}
	if !list.IsArray() {
		return nil, fmt.Errorf("%w: descriptions: expected an array or an object with %q", ErrMalformedSource, descriptionsListKey)
	}

	var out []Description
	if err := json.Unmarshal([]byte(list.Raw), &out); err != nil {
		return nil, fmt.Errorf("%w: descriptions: %v", ErrMalformedSource, err)
	}
	return out, nil
}

// DecodeProvisioning parses the provisioning document. An empty document
// yields no entries.
func DecodeProvisioning(data []byte) ([]ProvisioningInfo, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: provisioning: invalid JSON", ErrMalformedSource)
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, fmt.Errorf("%w: provisioning: expected an array", ErrMalformedSource)
	}

	var out []ProvisioningInfo
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: provisioning: %v", ErrMalformedSource, err)
	}
	return out, nil
}

// ValidatePermissions checks that the permissions document is well-formed JSON
// and returns it as is. An empty document yields nil.
func ValidatePermissions(data []byte) (json.RawMessage, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: permissions: invalid JSON", ErrMalformedSource)
	}
	return json.RawMessage(data), nil
}
